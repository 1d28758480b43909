package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"captionize/internal/captions"
	"captionize/internal/services/assemblyai"
)

func newSRTCommand() *cobra.Command {
	var outputPath string
	var milliseconds bool
	var preview bool

	cmd := &cobra.Command{
		Use:   "srt <words.json|->",
		Short: "Render a word-timing JSON file into SRT captions",
		Long: "Reads a JSON array of words ({\"text\",\"start\",\"end\",\"confidence\"}) or an object with a\n" +
			"\"words\" array and prints SRT captions. Timings are seconds unless --ms is set.",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			words, err := decodeWords(raw, milliseconds)
			if err != nil {
				return err
			}
			cues, srt, err := captions.Render(words)
			if err != nil {
				return err
			}
			if preview {
				fmt.Fprintln(cmd.OutOrStdout(), renderCaptionTable(cues))
				return nil
			}
			return writeSRT(cmd, outputPath, srt)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write SRT to this file instead of stdout")
	cmd.Flags().BoolVar(&milliseconds, "ms", false, "Word timings are integer milliseconds (AssemblyAI format)")
	cmd.Flags().BoolVar(&preview, "preview", false, "Print a caption table instead of SRT")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func decodeWords(raw []byte, milliseconds bool) ([]captions.Word, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") {
		var wrapper struct {
			Words json.RawMessage `json:"words"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, fmt.Errorf("decode words: %w", err)
		}
		raw = wrapper.Words
	}
	if milliseconds {
		transcript := assemblyai.Transcript{}
		if err := json.Unmarshal(raw, &transcript.Words); err != nil {
			return nil, fmt.Errorf("decode words: %w", err)
		}
		return transcript.CaptionWords(), nil
	}
	var words []captions.Word
	if err := json.Unmarshal(raw, &words); err != nil {
		return nil, fmt.Errorf("decode words: %w", err)
	}
	return words, nil
}
