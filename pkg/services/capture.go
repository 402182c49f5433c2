package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"queryfanout/pkg/sse"
)

var (
	relatedArrayPattern  = regexp.MustCompile(`(?s)"related_queries"\s*:\s*\[(.*?)\]`)
	quotedElementPattern = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
)

/*
ParseRelatedQueries pulls the related_queries array literal out of a
captured streaming response body. The body usually arrives as SSE frames,
so the patterns run over the joined data payloads first and fall back to the
raw body when the stream was not framed. Punctuation-only fragments picked
up by the quoted-element pattern are dropped; the rest de-duplicate in
first-seen order.
*/
func ParseRelatedQueries(body string) []string {
	text := sse.JoinData(sse.Scan(body))
	if text == "" {
		text = body
	}

	match := relatedArrayPattern.FindStringSubmatch(text)
	if match == nil && text != body {
		match = relatedArrayPattern.FindStringSubmatch(body)
	}
	if match == nil {
		return nil
	}

	queries := make([]string, 0)
	for _, element := range quotedElementPattern.FindAllStringSubmatch(match[1], -1) {
		candidate := element[1]
		if unquoted, err := strconv.Unquote(`"` + candidate + `"`); err == nil {
			candidate = unquoted
		}

		candidate = strings.TrimSpace(candidate)
		if candidate == "" || punctuationOnly(candidate) {
			continue
		}

		queries = append(queries, candidate)
	}

	return dedupeStrings(queries)
}

func punctuationOnly(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
