package fanout

import (
	"fmt"
	"strings"

	"queryfanout/pkg/services"
	"queryfanout/pkg/ui"
)

const previewLimit = 300

// RenderBanner renders the run header block.
func RenderBanner(query string, serviceKeys []string) string {
	return ui.BannerStyle.Render(fmt.Sprintf(
		"%s\n%s %s\n%s %s",
		ui.TitleStyle.Render("QUERY FANOUT"),
		ui.LabelStyle.Render("Query:"), ui.ValueStyle.Render(query),
		ui.LabelStyle.Render("Services:"), ui.ValueStyle.Render(strings.Join(serviceKeys, ", ")),
	))
}

// RenderResult renders one per-service block: outcome mark, then a payload
// preview shaped per service.
func RenderResult(result QueryResult) string {
	name := result.ServiceName
	if name == "" {
		name = result.Service
	}

	var builder strings.Builder
	builder.WriteString(ui.TitleStyle.Render(fmt.Sprintf("Result from %s", name)))
	builder.WriteString("\n")

	if !result.Success {
		builder.WriteString(ui.FailureStyle.Render("✗ Failed"))
		builder.WriteString("\n")
		builder.WriteString(line("Error", result.Error))
		return builder.String()
	}

	builder.WriteString(ui.SuccessStyle.Render("✓ Success"))
	builder.WriteString("\n")

	switch data := result.ExtractedData.(type) {
	case services.ChatGPTData:
		builder.WriteString(line(fmt.Sprintf("Queries (%d)", len(data.Queries)), strings.Join(data.Queries, "; ")))
		builder.WriteString(line("Response", preview(data.Response)))
		builder.WriteString(line(fmt.Sprintf("Sources (%d)", len(data.Sources)), joinTitles(data.Sources)))
		if data.Error != "" {
			builder.WriteString(ui.WarningStyle.Render(fmt.Sprintf("  Extraction warning: %s", data.Error)))
			builder.WriteString("\n")
		}

	case services.PerplexityData:
		builder.WriteString(line("Answer", preview(data.Answer)))
		builder.WriteString(line(fmt.Sprintf("Sources (%d)", len(data.Sources)), joinTitles(data.Sources)))
		builder.WriteString(line(fmt.Sprintf("Related (%d)", len(data.RelatedQueries)), strings.Join(data.RelatedQueries, "; ")))
		if data.Error != "" {
			builder.WriteString(ui.WarningStyle.Render(fmt.Sprintf("  Extraction warning: %s", data.Error)))
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

// RenderTally renders the final run summary.
func RenderTally(results []QueryResult) string {
	succeeded := 0
	for _, result := range results {
		if result.Success {
			succeeded++
		}
	}

	return ui.TallyStyle.Render(fmt.Sprintf(
		"%s\n%s\n%s\n%s",
		ui.TitleStyle.Render("SUMMARY"),
		line("Total services queried", fmt.Sprintf("%d", len(results))),
		ui.SuccessStyle.Render(fmt.Sprintf("  Successful: %d", succeeded)),
		ui.FailureStyle.Render(fmt.Sprintf("  Failed: %d", len(results)-succeeded)),
	))
}

func line(label, value string) string {
	return fmt.Sprintf("%s %s\n", ui.LabelStyle.Render("  "+label+":"), ui.ValueStyle.Render(value))
}

func preview(text string) string {
	if len(text) > previewLimit {
		return text[:previewLimit] + "..."
	}
	return text
}

func joinTitles(links []services.Link) string {
	titles := make([]string, 0, len(links))
	for _, link := range links {
		titles = append(titles, link.Title)
	}
	if len(titles) > 5 {
		titles = titles[:5]
	}
	return strings.Join(titles, "; ")
}
