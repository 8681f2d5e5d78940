// Package stream decodes the event-stream body returned by the chat relay
// into assistant text fragments.
package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

const (
	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

type chunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Decoder yields the content fragments of an OpenAI-style completion stream.
// Lines are buffered until their newline arrives, so fragments split across
// network reads decode the same as whole ones.
type Decoder struct {
	r       *bufio.Reader
	done    bool
	skipped int
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next non-empty content fragment. It returns io.EOF once
// the stream ends or the [DONE] sentinel is seen; nothing after the sentinel
// is read. A final line without a terminating newline is dropped.
func (d *Decoder) Next() (string, error) {
	for !d.done {
		line, err := d.r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.done = true
				return "", io.EOF
			}
			return "", err
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := strings.TrimSpace(line[len(dataPrefix):])
		if payload == doneMarker {
			d.done = true
			return "", io.EOF
		}

		var c chunk
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			d.skipped++
			continue
		}
		if len(c.Choices) == 0 || c.Choices[0].Delta.Content == "" {
			continue
		}
		return c.Choices[0].Delta.Content, nil
	}
	return "", io.EOF
}

// Skipped reports how many data lines were dropped as undecodable.
func (d *Decoder) Skipped() int {
	return d.skipped
}
