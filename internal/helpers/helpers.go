package helpers

import (
	"fmt"
	"math"
	"strings"
)

// MaxMessageLength is the chat transport's text message size cap.
const MaxMessageLength = 4096

var sizeSuffixes = []string{"B", "KB", "MB", "GB", "TB"}

// BytesToSize renders a byte count as a human readable string.
func BytesToSize(bytes uint64) string {
	if bytes == 0 {
		return "0 B"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeSuffixes) {
		i = len(sizeSuffixes) - 1
	}
	value := float64(bytes) / math.Pow(1024, float64(i))
	if i == 0 {
		return fmt.Sprintf("%d %s", bytes, sizeSuffixes[i])
	}
	return fmt.Sprintf("%.1f %s", value, sizeSuffixes[i])
}

// IsLikelyURL reports whether text looks like a content link worth
// handing to the resolver. Anything with whitespace is rejected.
func IsLikelyURL(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if strings.ContainsAny(text, " \n\t") {
		return false
	}
	return strings.HasPrefix(text, "http://") ||
		strings.HasPrefix(text, "https://") ||
		strings.HasPrefix(text, "soundcloud.com/")
}

// ChunkMessage splits text into transport-sized chunks on line
// boundaries. A single line longer than the limit becomes its own
// chunk and is left for the transport to reject.
func ChunkMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if current.Len() > 0 && current.Len()+len(line)+1 > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
