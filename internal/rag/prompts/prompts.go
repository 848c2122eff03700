package prompts

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/akolanti/DocRAG/internal/domain/commonModels"
)

// NotFoundPhrase is what the model is told to answer when the context lacks the answer.
const NotFoundPhrase = "I cannot find the answer in this document."

const PodcastOpening = "Welcome back! Today we're analyzing a new document..."

var answerTemplate = template.Must(template.New("answer").Parse(`You are an intelligent Enterprise Assistant.
Answer the question based strictly on the context provided.

Rules:
1. Answer strictly based on the context provided.
2. If the answer is not in the context, say "{{.NotFound}}"
3. Be concise and accurate.
4. Cite specific information when possible.

Context:
{{.Context}}

Question: {{.Question}}

Answer:
`))

var summaryTemplate = template.Must(template.New("summary").Parse(`Analyze the following document content and provide a comprehensive summary.

Include:
1. Main topics and themes
2. Key points and findings
3. Important dates, numbers, or metrics
4. Conclusions or recommendations

Format your response as:
- Executive Summary (2-3 sentences)
- Key Points (bullet list)
- Important Details (paragraph)

Document Content:
{{.Context}}

Summary:
`))

var graphTemplate = template.Must(template.New("graph").Parse(`Extract a Knowledge Graph from the text below.
Return ONLY a JSON object. No intro text.

Format:
{
  "nodes": [{"id": "ConceptName", "group": 1, "label": "Display Name"}],
  "links": [{"source": "ConceptName", "target": "OtherConcept", "relation": "relationship type", "value": 1}]
}

Extract key concepts, entities, and their relationships.
Create 5-15 nodes and 5-20 links.

Text:
{{.Context}}
`))

var podcastTemplate = template.Must(template.New("podcast").Parse(`Write a lively, engaging 1-minute podcast intro summarizing this document.
Start with "{{.Opening}}"
Keep it conversational and engaging.
Maximum 150 words.

Text to summarize:
{{.Context}}
`))

type data struct {
	Context  string
	Question string
	NotFound string
	Opening  string
}

func render(t *template.Template, d data) string {
	var buf bytes.Buffer
	// templates are static and only read string fields, Execute cannot fail here
	_ = t.Execute(&buf, d)
	return buf.String()
}

// JoinChunks concatenates chunk texts with blank lines between them.
func JoinChunks(chunks []commonModels.TextChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Content)
	}
	return strings.Join(parts, "\n\n")
}

func Answer(chunks []commonModels.RetrievedChunk, question string) string {
	texts := make([]commonModels.TextChunk, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.TextChunk)
	}
	return render(answerTemplate, data{Context: JoinChunks(texts), Question: question, NotFound: NotFoundPhrase})
}

func Summary(chunks []commonModels.TextChunk) string {
	return render(summaryTemplate, data{Context: JoinChunks(chunks)})
}

func Graph(chunks []commonModels.TextChunk) string {
	return render(graphTemplate, data{Context: JoinChunks(chunks)})
}

func Podcast(chunks []commonModels.TextChunk) string {
	return render(podcastTemplate, data{Context: JoinChunks(chunks), Opening: PodcastOpening})
}
