package priors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/roach88/priorledger/internal/ir"
)

// Heading is the markdown heading that opens the machine block.
const Heading = "## Priors (Machine)"

// TimestampLayout is the default "Last updated" marker format.
const TimestampLayout = "2006-01-02 15:04 UTC"

var (
	headingRe     = regexp.MustCompile(`(?m)^## Priors \(Machine\)[ \t]*$`)
	nextHeadingRe = regexp.MustCompile(`(?m)^## `)
	openFenceRe   = regexp.MustCompile("(?m)^```json[ \\t]*$")
	closeFenceRe  = regexp.MustCompile("(?m)^```[ \\t]*$")
	lastUpdatedRe = regexp.MustCompile(`(?m)^Last updated:[ \t]*(.*)$`)
)

// span locates the machine block within a document.
// start is the heading offset; end is just past the closing fence.
type span struct {
	start int
	end   int
	body  string
}

// locate finds the machine block. The json fence must sit inside the
// section, i.e. before the next level-2 heading.
func locate(doc string) (span, error) {
	loc := headingRe.FindStringIndex(doc)
	if loc == nil {
		return span{}, &BlockError{Code: ErrCodeMissingBlock, Message: fmt.Sprintf("section %q not found", Heading)}
	}
	start, headingEnd := loc[0], loc[1]

	sectionEnd := len(doc)
	if next := nextHeadingRe.FindStringIndex(doc[headingEnd:]); next != nil {
		sectionEnd = headingEnd + next[0]
	}
	section := doc[headingEnd:sectionEnd]

	open := openFenceRe.FindStringIndex(section)
	if open == nil {
		return span{}, &BlockError{Code: ErrCodeMissingBlock, Message: "json fence not found in priors section"}
	}
	bodyStart := open[1]
	if bodyStart < len(section) && section[bodyStart] == '\n' {
		bodyStart++
	}

	closing := closeFenceRe.FindStringIndex(section[bodyStart:])
	if closing == nil {
		return span{}, &BlockError{Code: ErrCodeParseError, Message: "json fence is not terminated"}
	}

	return span{
		start: start,
		end:   headingEnd + bodyStart + closing[1],
		body:  section[bodyStart : bodyStart+closing[0]],
	}, nil
}

// Extract returns the priors stored in doc's machine block.
// Field-level invariants are not checked; see Validate.
func Extract(doc string) ([]ir.Prior, error) {
	sp, err := locate(doc)
	if err != nil {
		return nil, err
	}

	body := strings.TrimSpace(sp.body)
	if body == "" {
		return nil, &BlockError{Code: ErrCodeEmptyBlock, Message: "json fence is empty"}
	}
	if !strings.HasPrefix(body, "[") {
		return nil, &BlockError{Code: ErrCodeParseError, Message: "priors block must be a JSON array"}
	}

	var out []ir.Prior
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&out); err != nil {
		return nil, &BlockError{Code: ErrCodeParseError, Message: "invalid priors JSON", Err: err}
	}
	if dec.More() {
		return nil, &BlockError{Code: ErrCodeParseError, Message: "trailing content after priors array"}
	}
	if out == nil {
		out = []ir.Prior{}
	}
	return out, nil
}

// Serialize renders a complete machine block for priors.
// An empty timestamp defaults to the current UTC time in TimestampLayout.
// The result carries no trailing newline so it can replace a located block
// exactly.
func Serialize(priors []ir.Prior, timestamp string) (string, error) {
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(TimestampLayout)
	}
	if priors == nil {
		priors = []ir.Prior{}
	}

	data, err := ir.EncodeJSON(priors, "  ")
	if err != nil {
		return "", fmt.Errorf("serialize priors: %w", err)
	}

	var b bytes.Buffer
	b.WriteString(Heading)
	b.WriteString("\n\nLast updated: ")
	b.WriteString(timestamp)
	b.WriteString("\n\n```json\n")
	b.Write(data)
	b.WriteString("\n```")
	return b.String(), nil
}

// ReplaceMachineBlock swaps doc's machine block for block. Content before the
// heading and after the closing fence is preserved byte-for-byte.
func ReplaceMachineBlock(doc, block string) (string, error) {
	sp, err := locate(doc)
	if err != nil {
		return "", err
	}
	return doc[:sp.start] + block + doc[sp.end:], nil
}

// LastUpdated returns the "Last updated" marker of the machine block, or ""
// when the section has none.
func LastUpdated(doc string) (string, error) {
	sp, err := locate(doc)
	if err != nil {
		return "", err
	}
	m := lastUpdatedRe.FindStringSubmatch(doc[sp.start:sp.end])
	if m == nil {
		return "", nil
	}
	return strings.TrimSpace(m[1]), nil
}

// SerializeNow renders the machine block stamped with clock's current time.
func SerializeNow(priors []ir.Prior, clock ir.Clock) (string, error) {
	return Serialize(priors, clock.Now().UTC().Format(TimestampLayout))
}
