package prompt

import "slices"

// Built-in prompt ids referenced by name elsewhere.
const (
	BasicTranscriptionID = "basic-transcription"
	CustomPromptID       = "custom-prompt"
)

var builtins = []Builtin{
	{
		ID:               "linkedin-storyteller",
		Name:             "LinkedIn Storyteller",
		ShortDescription: "Turn a voice note into an engaging LinkedIn post",
		Category:         "linkedin",
		Text: "Rewrite this recording as a LinkedIn post. Open with a hook, keep paragraphs to two or three lines, " +
			"stay under 1300 characters, pull out the actionable insight, and close with a question and a few relevant hashtags.",
	},
	{
		ID:               "business-article-writer",
		Name:             "Business Article Writer",
		ShortDescription: "Convert a voice note into a structured business article",
		Category:         "business",
		Text: "Rewrite this recording as a business article with a headline, an opening paragraph, sections under " +
			"descriptive subheadings and a conclusion listing the key takeaways. Keep the tone professional and concrete.",
	},
	{
		ID:               "meeting-minutes",
		Name:             "Meeting Minutes",
		ShortDescription: "Organize a meeting recording into minutes",
		Category:         "meeting",
		Text: "Write meeting minutes for this recording: title and date, attendees if mentioned, discussion points, " +
			"decisions, action items with owners and deadlines, and next steps.",
	},
	{
		ID:               "interview-transcript",
		Name:             "Interview Transcript",
		ShortDescription: "Format an interview as a readable transcript",
		Category:         "interview",
		Text: "Transcribe this interview. Identify speakers, use a question and answer layout, break paragraphs for " +
			"readability and keep the speakers' own wording.",
	},
	{
		ID:               "lecture-notes",
		Name:             "Lecture Notes",
		ShortDescription: "Turn a lecture into study notes",
		Category:         "lecture",
		Text: "Write study notes for this lecture: main topic, key concepts and definitions, examples, a summary " +
			"of the main points and questions for further study.",
	},
	{
		ID:               "podcast-summary",
		Name:             "Podcast Summary",
		ShortDescription: "Summarize a podcast episode",
		Category:         "podcast",
		Text: "Summarize this podcast episode: a short overview, the main topics in order, notable quotes and " +
			"the takeaways a listener should remember.",
	},
	{
		ID:               "content-analyzer",
		Name:             "Content Analyzer",
		ShortDescription: "Analyze the themes and arguments in a recording",
		Category:         "analysis",
		Text: "Analyze this recording. List the main themes, the arguments made and the evidence offered for them, " +
			"any gaps or open questions, and suggested follow-ups.",
	},
	{
		ID:               BasicTranscriptionID,
		Name:             "Basic Transcription",
		ShortDescription: "Plain speech to text",
		Category:         "transcription",
		Text:             "Transcribe this audio accurately. Add punctuation and paragraph breaks and do not summarize.",
	},
	{
		ID:               CustomPromptID,
		Name:             "Custom Prompt",
		ShortDescription: "Write your own instructions",
		Category:         "custom",
	},
}

// Builtins returns the shipped templates in display order.
func Builtins() []Builtin {
	return slices.Clone(builtins)
}

// BuiltinByID looks up a shipped template.
func BuiltinByID(id string) (Builtin, bool) {
	i := slices.IndexFunc(builtins, func(b Builtin) bool { return b.ID == id })
	if i < 0 {
		return Builtin{}, false
	}
	return builtins[i], true
}
