package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rgehrsitz/payoutgo/internal/domain"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of quote request files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a batch of quote requests from a YAML file
func (ip *InputParser) LoadFromFile(filename string) (*domain.QuoteFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates a quote request document
func (ip *InputParser) Parse(data []byte) (*domain.QuoteFile, error) {
	var file domain.QuoteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidateQuoteFile(&file); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &file, nil
}

// ValidateQuoteFile validates every request in the batch. Names default to quote-N and
// must be unique so results can be matched back to requests.
func (ip *InputParser) ValidateQuoteFile(file *domain.QuoteFile) error {
	if len(file.Quotes) == 0 {
		return fmt.Errorf("no quotes provided")
	}

	seen := make(map[string]int, len(file.Quotes))
	for i := range file.Quotes {
		q := &file.Quotes[i]
		q.Name = strings.TrimSpace(q.Name)
		if q.Name == "" {
			q.Name = fmt.Sprintf("quote-%d", i+1)
		}
		if prev, ok := seen[q.Name]; ok {
			return fmt.Errorf("quote %d: name %q already used by quote %d", i, q.Name, prev)
		}
		seen[q.Name] = i

		if err := ip.validateQuote(q); err != nil {
			return fmt.Errorf("quote %d (%s) validation failed: %w", i, q.Name, err)
		}
	}
	return nil
}

// validateQuote normalizes and validates a single request
func (ip *InputParser) validateQuote(q *domain.QuoteRequest) error {
	if q.Sex != "" {
		sex, err := domain.ParseSex(string(q.Sex))
		if err != nil {
			return err
		}
		q.Sex = sex
	}
	if q.Structure.Kind == "" {
		q.Structure.Kind = domain.PayoutLifetime
	}
	return q.Validate()
}
