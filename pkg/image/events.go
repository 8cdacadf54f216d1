package image

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Variant is one classification of a build/push stream event. A single event
// can carry several variants at once (an aux event can also carry an error).
type Variant interface{ isVariant() }

type Status string

// StreamChunk is free-form build output text.
type StreamChunk string

type AuxDigest string

type AuxID string

// ErrorMsg is the top-level error string of an event.
type ErrorMsg string

// ErrorDetail is the structured error of an event, optionally with a code.
type ErrorDetail struct {
	Message string
	Code    *int
}

func (Status) isVariant()      {}
func (StreamChunk) isVariant() {}
func (AuxDigest) isVariant()   {}
func (AuxID) isVariant()       {}
func (ErrorMsg) isVariant()    {}
func (ErrorDetail) isVariant() {}

type rawEvent struct {
	Status string `json:"status"`
	Stream string `json:"stream"`
	Aux    *struct {
		Digest string `json:"Digest"`
		ID     string `json:"ID"`
	} `json:"aux"`
	Error       string `json:"error"`
	ErrorDetail *struct {
		Message string `json:"message"`
		Code    *int   `json:"code"`
	} `json:"errorDetail"`
}

func (r rawEvent) variants() []Variant {
	var vs []Variant
	if r.Status != "" {
		vs = append(vs, Status(r.Status))
	}
	if r.Stream != "" {
		vs = append(vs, StreamChunk(r.Stream))
	}
	if r.Aux != nil {
		if r.Aux.Digest != "" {
			vs = append(vs, AuxDigest(r.Aux.Digest))
		}
		if r.Aux.ID != "" {
			vs = append(vs, AuxID(r.Aux.ID))
		}
	}
	if r.Error != "" {
		vs = append(vs, ErrorMsg(r.Error))
	}
	if r.ErrorDetail != nil {
		vs = append(vs, ErrorDetail{Message: r.ErrorDetail.Message, Code: r.ErrorDetail.Code})
	}
	return vs
}

var (
	leadingNewline    = regexp.MustCompile(`^\n`)
	trailingNewline   = regexp.MustCompile(`\n$`)
	trailingResetExpr = regexp.MustCompile("\n(\x1b\\[0m)$")
)

func normalizeStream(s string) string {
	s = leadingNewline.ReplaceAllString(s, "")
	s = trailingNewline.ReplaceAllString(s, "")
	s = trailingResetExpr.ReplaceAllString(s, "$1")
	return s
}

// Interpreter consumes a docker build or push event sequence, echoing
// human-readable output and accumulating every error encountered. The
// aggregated failure is raised once, after the full sequence, so a consumer
// sees the complete picture.
type Interpreter struct {
	out  io.Writer
	errs map[string]struct{}
}

func NewInterpreter(out io.Writer) *Interpreter {
	return &Interpreter{out: out, errs: map[string]struct{}{}}
}

// Consume decodes the whole JSON event stream from r and returns the
// aggregated error, if any.
func (in *Interpreter) Consume(r io.Reader) error {
	dec := json.NewDecoder(r)
	for {
		var line json.RawMessage
		if err := dec.Decode(&line); err != nil {
			if err == io.EOF {
				break
			}
			return errors.Wrap(err, "decode docker event stream")
		}
		var raw rawEvent
		if err := json.Unmarshal(line, &raw); err != nil {
			fmt.Fprintf(in.out, "not recognized: %s\n", line)
			continue
		}
		vs := raw.variants()
		if len(vs) == 0 {
			fmt.Fprintf(in.out, "not recognized: %s\n", line)
			continue
		}
		in.event(vs)
	}
	return in.Err()
}

func (in *Interpreter) event(vs []Variant) {
	for _, v := range vs {
		switch v := v.(type) {
		case Status:
			fmt.Fprintln(in.out, string(v))
		case StreamChunk:
			if s := normalizeStream(string(v)); s != "" {
				fmt.Fprintln(in.out, s)
			}
		case AuxDigest:
			fmt.Fprintf(in.out, "digest: %s\n", string(v))
		case AuxID:
			fmt.Fprintf(in.out, "ID: %s\n", string(v))
		case ErrorMsg:
			in.errs[string(v)] = struct{}{}
		case ErrorDetail:
			in.errs[v.Message] = struct{}{}
			if v.Code != nil {
				in.errs[fmt.Sprintf("Error code: %d", *v.Code)] = struct{}{}
			}
		}
	}
}

// Err returns the aggregated stream failure, or nil when no errors were seen.
func (in *Interpreter) Err() error {
	if len(in.errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(in.errs))
	for m := range in.errs {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	return errors.Errorf("problem executing Docker: %s", strings.Join(msgs, ". "))
}
