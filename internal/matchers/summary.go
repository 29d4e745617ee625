package matchers

import (
	"bufio"
	"bytes"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-message"
	gomail "github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
)

// Zone-less layouts seen in the wild. They are read as UTC.
var naiveDateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05",
	"Mon, 2 Jan 2006 15:04",
	"2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Summarize builds the classification view of a fetched header.
func Summarize(uid uint32, header Header) MessageSummary {
	summary := MessageSummary{
		UID:     uid,
		From:    strings.ToLower(strings.TrimSpace(header.From)),
		Subject: strings.ToLower(strings.TrimSpace(header.Subject)),
	}
	if date, ok := ParseDate(header.Date); ok {
		summary.Date = &date
	}
	return summary
}

// ParseDate parses a Date header value and normalizes it to UTC.
// Offset-aware values are converted; values without a zone are assumed UTC.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if parsed, err := mail.ParseDate(raw); err == nil {
		return parsed.UTC(), true
	}
	// Trailing comments such as "(UTC)" are allowed by RFC 5322 but trip some layouts.
	if idx := strings.Index(raw, "("); idx > 0 {
		if parsed, err := mail.ParseDate(strings.TrimSpace(raw[:idx])); err == nil {
			return parsed.UTC(), true
		}
	}
	for _, layout := range naiveDateLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// ParseHeader reads a raw header block, decoding MIME encoded words in From and Subject.
func ParseHeader(raw []byte) (Header, error) {
	tpHeader, err := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return Header{}, err
	}
	header := gomail.Header{Header: message.Header{Header: tpHeader}}
	return Header{
		From:    headerText(header, "From"),
		Subject: headerText(header, "Subject"),
		Date:    strings.TrimSpace(header.Get("Date")),
	}, nil
}

func headerText(header gomail.Header, key string) string {
	value, err := header.Text(key)
	if err != nil {
		return strings.TrimSpace(header.Get(key))
	}
	return strings.TrimSpace(value)
}
