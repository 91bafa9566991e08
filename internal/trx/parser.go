package trx

import (
	"encoding/xml"
	"strconv"
	"strings"
)

const unknownTestName = "Unknown test"

type trxDocument struct {
	XMLName xml.Name   `xml:"TestRun"`
	Results trxResults `xml:"Results"`
}

type trxResults struct {
	Records []trxRecord `xml:"UnitTestResult"`
}

type trxRecord struct {
	TestName  string        `xml:"testName,attr"`
	Outcome   string        `xml:"outcome,attr"`
	Duration  string        `xml:"duration,attr"`
	ErrorInfo *trxErrorInfo `xml:"Output>ErrorInfo"`
}

type trxErrorInfo struct {
	Message    *string `xml:"Message"`
	StackTrace *string `xml:"StackTrace"`
}

// Parse decodes a TRX document into a RunResult. It fails with a *ParseError
// only when the bytes are not XML at all; a well-formed document degrades
// field by field. Unrecognized attributes are ignored, unrecognized outcomes
// count as failures, malformed durations contribute zero.
func Parse(data []byte) (*RunResult, error) {
	var doc trxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	out := &RunResult{}
	for _, rec := range doc.Results.Records {
		out.Summary.Total++

		name := strings.TrimSpace(rec.TestName)
		if name == "" {
			name = unknownTestName
		}

		switch classifyOutcome(rec.Outcome) {
		case OutcomePassed:
			out.Summary.Passed++
		case OutcomeSkipped:
			out.Summary.Skipped++
		default:
			out.Summary.Failed++
			f := Failure{TestName: name}
			if rec.ErrorInfo != nil {
				f.Message = rec.ErrorInfo.Message
				f.StackTrace = rec.ErrorInfo.StackTrace
			}
			out.Failures = append(out.Failures, f)
		}

		out.Summary.DurationMs += parseDurationMs(rec.Duration)
	}

	out.Success = len(out.Failures) == 0
	return out, nil
}

func classifyOutcome(outcome string) Outcome {
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case "passed":
		return OutcomePassed
	case "skipped", "notexecuted":
		return OutcomeSkipped
	default:
		return OutcomeFailed
	}
}

// parseDurationMs converts an HH:MM:SS[.fraction] duration attribute into
// milliseconds. The fraction is truncated or padded to 3 digits. Anything
// malformed yields 0 rather than failing the parse.
func parseDurationMs(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 {
		return 0
	}

	secPart := parts[2]
	fracMs := int64(0)
	if dot := strings.IndexByte(secPart, '.'); dot >= 0 {
		frac := secPart[dot+1:]
		secPart = secPart[:dot]
		if len(frac) > 3 {
			frac = frac[:3]
		}
		for len(frac) < 3 {
			frac += "0"
		}
		n, err := strconv.Atoi(frac)
		if err != nil || n < 0 {
			return 0
		}
		fracMs = int64(n)
	}

	seconds, err := strconv.Atoi(secPart)
	if err != nil || seconds < 0 {
		return 0
	}

	return int64(hours)*3600000 + int64(minutes)*60000 + int64(seconds)*1000 + fracMs
}
