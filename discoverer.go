package factle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TopicDiscoverer searches for what is happening in the world right now and
// asks the model to turn it into ranked-list question candidates.
type TopicDiscoverer struct {
	llm    ChatCompleter
	search Searcher
	cfg    Config
}

// NewTopicDiscoverer creates a topic discoverer.
func NewTopicDiscoverer(llm ChatCompleter, search Searcher, cfg Config) *TopicDiscoverer {
	return &TopicDiscoverer{llm: llm, search: search, cfg: cfg}
}

// contextQueries returns the fixed set of context-gathering searches for the
// given day. Each captures a different angle on current events.
func contextQueries(now time.Time) []string {
	dayStr := now.Format("January 02, 2006")
	monthStr := now.Format("January 2006")
	return []string{
		fmt.Sprintf("major sports events tournaments happening %s", dayStr),
		fmt.Sprintf("cultural events celebrations holidays %s", monthStr),
		fmt.Sprintf("award ceremonies festivals conferences %s", monthStr),
		fmt.Sprintf("notable events news highlights past week %s", dayStr),
		fmt.Sprintf("famous birthdays national days %s", now.Format("January 02")),
	}
}

// Discover gathers current-event context and returns filtered topic
// candidates in the model's preference order. Individual search failures are
// logged and skipped; a malformed model response yields an empty list, which
// the caller treats as "no topics" rather than retrying.
func (td *TopicDiscoverer) Discover(ctx context.Context, now time.Time, rec *RunRecord) []TopicCandidate {
	disc := &DiscoveryRecord{}
	rec.Discovery = disc

	var pooled []SourceSnippet
	for _, query := range contextQueries(now) {
		sr := SearchRecord{Query: query}
		results, err := td.search.Search(ctx, query, td.cfg.SearchMaxResults)
		if err != nil {
			VerboseLog("Context search failed for %q: %v", query, err)
			sr.Error = err.Error()
			disc.Searches = append(disc.Searches, sr)
			continue
		}
		pooled = append(pooled, results...)
		sr.Results = sourceRefs(results)
		disc.Searches = append(disc.Searches, sr)
	}

	var contextText strings.Builder
	for _, s := range pooled {
		fmt.Fprintf(&contextText, "- %s: %s\n", s.Title, truncate(s.Content, td.cfg.ContextSnippetLen))
	}

	raw, err := completeJSON(ctx, td.llm, td.cfg.Model,
		discoverySystemPrompt, td.buildUserPrompt(now, contextText.String()))
	if err != nil {
		VerboseLog("Topic discovery model call failed: %v", err)
		disc.Error = err.Error()
		return nil
	}

	topics, err := parseTopicList(raw)
	if err != nil {
		VerboseLog("Topic discovery returned unparsable response: %v", err)
		disc.Error = err.Error()
		return nil
	}

	filtered := make([]TopicCandidate, 0, len(topics))
	for _, t := range topics {
		if IsTopicAppropriate(td.cfg.BlockedTopics, t.Topic+" "+t.SuggestedQuestion) {
			filtered = append(filtered, t)
		}
	}
	disc.FilteredCount = len(topics) - len(filtered)
	return filtered
}

// parseTopicList tolerates the shapes the model has been seen to return: a
// bare JSON array, an object with a "topics" key, or an object whose first
// list-valued field holds the candidates.
func parseTopicList(raw string) ([]TopicCandidate, error) {
	var asList []TopicCandidate
	if err := json.Unmarshal([]byte(raw), &asList); err == nil {
		return asList, nil
	}

	var asObject map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &asObject); err != nil {
		return nil, fmt.Errorf("topic response is neither array nor object: %w", err)
	}

	if topicsRaw, ok := asObject["topics"]; ok {
		var topics []TopicCandidate
		if err := json.Unmarshal(topicsRaw, &topics); err != nil {
			return nil, fmt.Errorf("topics field is not a candidate list: %w", err)
		}
		return topics, nil
	}

	for _, v := range asObject {
		var topics []TopicCandidate
		if err := json.Unmarshal(v, &topics); err == nil && len(topics) > 0 {
			return topics, nil
		}
	}
	return nil, fmt.Errorf("no list-valued field found in topic response")
}

const discoverySystemPrompt = "You are a creative game show host designing daily trivia for 'Factle'. " +
	"Factle questions are 'rank the top 5 in order' questions where ORDER matters and answers are objectively verifiable.\n\n" +
	"IMPORTANT RULES:\n" +
	"- Questions MUST be inspired by current events, recent happenings, celebrations, sports events, cultural moments, or seasonal themes.\n" +
	"- Questions must NOT be generic (like 'top 5 most populous countries' or 'top 5 largest economies') — those are boring and overused.\n" +
	"- Questions must NOT be about sensitive topics like violence, crime, abuse, shootings, political scandals, or anything offensive.\n" +
	"- Be creative! Connect current events to interesting ranked lists.\n\n" +
	"GREAT EXAMPLES of creative, topical questions:\n" +
	"- During Winter Olympics: 'Top 5 countries by Winter Olympics all-time gold medals'\n" +
	"- After Super Bowl: 'Top 5 NFL teams by number of Super Bowl wins'\n" +
	"- During Grammy season: 'Top 5 artists with most Grammy Awards ever'\n" +
	"- Valentine's Day: 'Top 5 countries that spend the most on Valentine's Day'\n" +
	"- During FIFA World Cup: 'Top 5 World Cup all-time top scorers'\n" +
	"- Near a country's national day: 'Top 5 exports of that country'\n" +
	"- Famous person's birthday: 'Top 5 highest-grossing films starring that actor'\n" +
	"- During award season: 'Top 5 films with most Oscar wins'\n" +
	"- During a music festival: 'Top 5 best-selling albums of all time'\n" +
	"- During a space event: 'Top 5 longest manned space missions'\n\n" +
	"BAD EXAMPLES (too generic, avoid these):\n" +
	"- 'Top 5 most populated countries'\n" +
	"- 'Top 5 largest countries by area'\n" +
	"- 'Top 5 biggest economies'\n" +
	"- 'Top 5 tallest mountains'\n"

func (td *TopicDiscoverer) buildUserPrompt(now time.Time, searchContext string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Today is %s. Here are current events and happenings:\n\n", now.Format("January 02, 2006"))
	sb.WriteString(searchContext)
	sb.WriteString("\n\nBased on these events, suggest 8-10 creative Factle questions that are DIRECTLY inspired by what's happening right now. ")
	sb.WriteString("Each question must have objectively verifiable, ordered answers.\n\n")
	sb.WriteString("For each suggestion, explain the connection to current events.\n\n")
	sb.WriteString("At the end, include 2-3 seasonal/cultural fallbacks (related to this time of year, but not generic knowledge questions).\n\n")
	sb.WriteString("Return ONLY a JSON object with a 'topics' key containing an array of objects with keys:\n")
	sb.WriteString("- 'topic': the current event or theme inspiring this question\n")
	sb.WriteString("- 'suggested_question': the exact Factle question to ask\n")
	sb.WriteString("- 'connection': why this is relevant right now")
	return sb.String()
}
