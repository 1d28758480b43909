package testsupport

import (
	"github.com/brianvoe/gofakeit/v6"

	"captionize/internal/captions"
)

// FakeWords generates a deterministic, well-formed word stream for seed.
// Roughly one word in six closes a sentence.
func FakeWords(seed int64, n int) []captions.Word {
	faker := gofakeit.New(seed)
	endings := []string{"", "", "", "", ",", "."}
	words := make([]captions.Word, n)
	clock := 0.0
	for i := range words {
		length := faker.Float64Range(0.1, 0.8)
		words[i] = captions.Word{
			Text:       faker.Word() + faker.RandomString(endings),
			Start:      clock,
			End:        clock + length,
			Confidence: faker.Float64Range(0.5, 1),
		}
		clock += length + faker.Float64Range(0, 0.3)
	}
	return words
}
