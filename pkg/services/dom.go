package services

import (
	"fmt"
	"strconv"
	"strings"
)

// jsStringArray renders a Go string slice as a JavaScript array literal so
// selector lists stay in Go config structs instead of being baked into the
// snippets.
func jsStringArray(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, value := range values {
		quoted = append(quoted, strconv.Quote(value))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// chatgptPollJS checks the two completion predicates: a visible
// generation-stop control means the answer is still streaming, and at least
// one assistant message node means an answer exists at all.
const chatgptPollJS = `() => {
	const stopButton = document.querySelector('button[aria-label*="Stop"]');
	const isGenerating = !!(stopButton && stopButton.offsetParent !== null);
	const hasResponse = document.querySelectorAll('[data-message-author-role="assistant"]').length > 0;
	return { isGenerating: isGenerating, hasResponse: hasResponse };
}`

/*
chatgptCollectJS gathers the raw extraction material in one round trip: the
last assistant message, search-status texts, citation anchors, and every
outbound link. Filtering, de-duplication, and caps happen on the Go side
where they can be tested without a page.
*/
func chatgptCollectJS(statusSelectors []string) string {
	return fmt.Sprintf(`() => {
	const assistantMessages = document.querySelectorAll('[data-message-author-role="assistant"]');
	let responseText = '';
	if (assistantMessages.length > 0) {
		responseText = assistantMessages[assistantMessages.length - 1].innerText || '';
	}

	const statusTexts = [];
	for (const selector of %s) {
		try {
			document.querySelectorAll(selector).forEach(el => {
				const text = (el.innerText || '').trim() || el.getAttribute('aria-label') || '';
				if (text) statusTexts.push(text);
			});
		} catch (e) {}
	}

	const citations = [];
	document.querySelectorAll('sup a, [class*="citation"] a, [data-testid*="citation"] a').forEach(el => {
		const url = el.href || el.getAttribute('href') || '';
		const title = el.getAttribute('title') || el.innerText || '';
		if (url.startsWith('http')) citations.push({ title: title, url: url });
	});

	const links = [];
	document.querySelectorAll('a[href^="http"]').forEach(el => {
		const title = (el.innerText || '').trim() || el.getAttribute('aria-label') || el.href;
		links.push({ title: title, url: el.href });
	});

	return {
		response: responseText,
		statusTexts: statusTexts,
		bodyText: document.body.innerText.substring(0, 20000),
		citations: citations,
		links: links
	};
}`, jsStringArray(statusSelectors))
}

/*
perplexityPollJS measures the three completion signals per tick: the length
of the largest answer-like container, whether a generating indicator is
visible, and whether a related-questions section has appeared yet.
*/
func perplexityPollJS(answerSelectors, generatingSelectors, relatedSelectors []string) string {
	return fmt.Sprintf(`() => {
	let length = 0;
	for (const selector of %s) {
		try {
			document.querySelectorAll(selector).forEach(el => {
				const len = (el.innerText || '').length;
				if (len > length) length = len;
			});
		} catch (e) {}
	}

	let generating = false;
	for (const selector of %s) {
		try {
			const el = document.querySelector(selector);
			if (el && el.offsetParent !== null) { generating = true; break; }
		} catch (e) {}
	}

	let related = false;
	for (const selector of %s) {
		try {
			if (document.querySelector(selector)) { related = true; break; }
		} catch (e) {}
	}

	return { length: length, generating: generating, related: related };
}`, jsStringArray(answerSelectors), jsStringArray(generatingSelectors), jsStringArray(relatedSelectors))
}

/*
perplexityCollectJS gathers the raw answer text (first candidate container
meeting the minimum length), every outbound link with visible text, the
selector-derived related entries, and the generic clickable-with-a-question
heuristic candidates. As with ChatGPT, all filtering happens in Go.
*/
func perplexityCollectJS(answerSelectors, relatedSelectors []string, minAnswerLen int) string {
	return fmt.Sprintf(`() => {
	let answer = '';
	for (const selector of %s) {
		try {
			const el = document.querySelector(selector);
			if (el) {
				const text = (el.innerText || '').trim();
				if (text.length >= %d) { answer = text; break; }
			}
		} catch (e) {}
	}

	const links = [];
	document.querySelectorAll('a[href^="http"]').forEach(el => {
		const title = (el.textContent || '').trim();
		if (el.href && title) links.push({ title: title, url: el.href });
	});

	const related = [];
	for (const selector of %s) {
		try {
			document.querySelectorAll(selector).forEach(el => {
				const text = (el.textContent || '').trim();
				if (text) related.push(text);
			});
		} catch (e) {}
	}

	const heuristic = [];
	document.querySelectorAll('a, button, [role="button"]').forEach(el => {
		const text = (el.textContent || '').trim();
		if (text.includes('?')) heuristic.push(text);
	});

	return { answer: answer, links: links, related: related, heuristic: heuristic };
}`, jsStringArray(answerSelectors), minAnswerLen, jsStringArray(relatedSelectors))
}
