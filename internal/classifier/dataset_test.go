package classifier

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justestif/go-emotion-color/internal/emotion"
)

func TestLoadCSV(t *testing.T) {
	input := strings.Join([]string{
		"Text,Emotion",
		`"i feel great, really",happy`,
		"i miss you,sadness",
		"get out,Anger",
	}, "\n")

	examples, err := LoadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []Example{
		{Text: "i feel great, really", Label: emotion.Happy},
		{Text: "i miss you", Label: emotion.Sadness},
		{Text: "get out", Label: emotion.Anger},
	}, examples)
}

func TestLoadCSVColumnOrderAndExtras(t *testing.T) {
	input := "id,emotion,text\n1,love,adore you\n2,fear,so scared\n"

	examples, err := LoadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, examples, 2)
	require.Equal(t, Example{Text: "adore you", Label: emotion.Love}, examples[0])
}

func TestLoadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		wantMsg string
	}{
		{name: "empty input", input: "", wantErr: ErrNoExamples},
		{name: "header only", input: "Text,Emotion\n", wantErr: ErrNoExamples},
		{name: "missing text column", input: "Sentence,Emotion\nhi,happy\n", wantErr: ErrMissingColumn},
		{name: "missing emotion column", input: "Text,Label\nhi,happy\n", wantErr: ErrMissingColumn},
		{name: "unknown label", input: "Text,Emotion\nhi,happy\nyo,joy\n", wantErr: emotion.ErrUnknownCategory, wantMsg: "line 3"},
		{name: "short row", input: "Text,Emotion\nhi\n", wantMsg: "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				require.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoadCSVFileAndTrain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emotion_data.csv")
	data := "Text,Emotion\nso happy today,happy\nvery sad today,sadness\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	examples, err := LoadCSVFile(path)
	require.NoError(t, err)

	model, err := Train(examples, WithFittedPriors())
	require.NoError(t, err)

	got, err := model.Predict("happy")
	require.NoError(t, err)
	require.Equal(t, emotion.Happy, got)

	modelPath := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, model.SaveFile(modelPath))
	loaded, err := LoadModelFile(modelPath)
	require.NoError(t, err)
	require.Equal(t, model.Classes, loaded.Classes)

	_, err = LoadCSVFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}
