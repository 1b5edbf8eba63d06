package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// SynthesisResult describes one synthesized clip
type SynthesisResult struct {
	Text       string        `json:"text"`
	Voice      string        `json:"voice"`
	Speed      int           `json:"speed"`
	Output     string        `json:"output,omitempty"`
	Bytes      int           `json:"bytes"`
	SampleRate int           `json:"sample_rate"`
	Duration   time.Duration `json:"duration_ns"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Event represents a system event
type Event struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Formatter is the interface for output formatters
type Formatter interface {
	// WriteResult writes a synthesis result
	WriteResult(result SynthesisResult) error

	// WriteEvent writes a system event (e.g., a voice override)
	WriteEvent(eventType, message string) error

	// Close closes the formatter and releases resources
	Close() error
}

// New returns the formatter for format ("json" or "text")
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case "json":
		return NewJSONFormatter(w), nil
	case "text", "":
		return NewPlainTextFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// JSONFormatter outputs results in JSON format
type JSONFormatter struct {
	encoder *json.Encoder
	results []SynthesisResult
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	return &JSONFormatter{encoder: encoder}
}

// WriteResult writes a synthesis result in JSON format
func (j *JSONFormatter) WriteResult(result SynthesisResult) error {
	j.results = append(j.results, result)
	return j.encoder.Encode(result)
}

// WriteEvent writes a system event
func (j *JSONFormatter) WriteEvent(eventType, message string) error {
	return j.encoder.Encode(Event{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// Close closes the formatter
func (j *JSONFormatter) Close() error {
	return nil
}

// GetResults returns all results written so far
func (j *JSONFormatter) GetResults() []SynthesisResult {
	return j.results
}

// PlainTextFormatter outputs results in plain text format
type PlainTextFormatter struct {
	writer io.Writer
}

// NewPlainTextFormatter creates a new plain text formatter
func NewPlainTextFormatter(writer io.Writer) *PlainTextFormatter {
	return &PlainTextFormatter{writer: writer}
}

// WriteResult writes a synthesis result in plain text
func (p *PlainTextFormatter) WriteResult(r SynthesisResult) error {
	dest := r.Output
	if dest == "" {
		dest = "-"
	}
	_, err := fmt.Fprintf(p.writer, "%s: %s, voice %s, speed %d, %d Hz, %s\n",
		dest, humanize.Bytes(uint64(r.Bytes)), r.Voice, r.Speed, r.SampleRate, r.Duration.Round(time.Millisecond))
	return err
}

// WriteEvent writes a system event
func (p *PlainTextFormatter) WriteEvent(eventType, message string) error {
	timestamp := time.Now().Format("15:04:05")
	_, err := fmt.Fprintf(p.writer, "[%s] [%s] %s\n", timestamp, eventType, message)
	return err
}

// Close closes the formatter
func (p *PlainTextFormatter) Close() error {
	return nil
}
