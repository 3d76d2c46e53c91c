package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

func init() {
	// Offline BPE dictionary, no network fetch on first use
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
	encodingErr  error
)

// CountTokens returns the token count of text under the cl100k_base
// encoding, falling back to a rough length estimate if the encoder
// cannot be initialized
func CountTokens(text string) int {
	encodingOnce.Do(func() {
		encoding, encodingErr = tiktoken.GetEncoding("cl100k_base")
	})
	if encodingErr != nil || encoding == nil {
		return len(text) / 4
	}
	return len(encoding.Encode(text, nil, nil))
}
