package model

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ContextLine is one line of source shown around a symbol site.
type ContextLine struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
	Target bool   `json:"target"`
}

// LineContext represents a line from a file with surrounding context
type LineContext struct {
	File     string        `json:"file"`
	Line     int           `json:"line"`
	Lines    []ContextLine `json:"lines"`
	ErrorMsg string        `json:"error,omitempty"` // Error message if file couldn't be read
}

// GetLineContext reads filePath and returns lineNumber with up to radius
// lines on either side. Failures are reported in ErrorMsg so that callers
// can display them in place of the source.
func GetLineContext(filePath string, lineNumber, radius int) LineContext {
	result := LineContext{
		File: filePath,
		Line: lineNumber,
	}

	// Expand tilde in file path
	if strings.HasPrefix(filePath, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			filePath = strings.Replace(filePath, "~", home, 1)
		}
	}

	file, err := os.Open(filePath)
	if err != nil {
		result.ErrorMsg = fmt.Sprintf("Could not read file: %v", err)
		return result
	}
	defer file.Close()

	if lineNumber < 1 {
		result.ErrorMsg = fmt.Sprintf("Line %d out of range", lineNumber)
		return result
	}
	first, last := lineNumber-radius, lineNumber+radius
	if first < 1 {
		first = 1
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		if n < first {
			continue
		}
		if n > last {
			break
		}
		result.Lines = append(result.Lines, ContextLine{
			Number: n,
			Text:   scanner.Text(),
			Target: n == lineNumber,
		})
	}
	if err := scanner.Err(); err != nil {
		result.ErrorMsg = fmt.Sprintf("Error reading file: %v", err)
		return result
	}

	if n < lineNumber {
		result.ErrorMsg = fmt.Sprintf("Line %d out of range (file has %d lines)", lineNumber, n)
		result.Lines = nil
	}
	return result
}
