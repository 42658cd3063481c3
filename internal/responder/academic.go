package responder

import (
	"context"

	"github.com/brightling/companiond/internal/core/ports"
)

// Academic handles learning questions: homework help, subject explanations,
// practice prompts. Stateless per call.
type Academic struct{}

func NewAcademic() *Academic { return &Academic{} }

func (a *Academic) Name() string { return "academic" }

func (a *Academic) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	switch {
	case containsAny(req.Text, "math", "maths", "multiply", "divide", "fraction"):
		return pick(mathResponses, req), nil
	case containsAny(req.Text, "science", "planet", "animal", "experiment"):
		return pick(scienceResponses, req), nil
	case containsAny(req.Text, "reading", "writing", "spelling", "story"):
		return pick(languageResponses, req), nil
	default:
		return pick(generalAcademicResponses, req), nil
	}
}

var mathResponses = []string{
	"Great math question! Let's work through it one step at a time. What part feels tricky?",
	"Let's try that a different way: can you tell me what the problem is asking for in your own words?",
	"Math gets easier with practice. Let's start from something you already know and build up from there.",
}

var scienceResponses = []string{
	"Science is all about asking why! Let's explore your question together. What made you curious about it?",
	"Here's another way to think about it: scientists start by observing. What have you noticed yourself?",
	"That's a wonderful thing to wonder about. Let's look at what we know for sure, step by step.",
}

var languageResponses = []string{
	"Reading and writing are like superpowers. Which part would you like to practice together?",
	"Let's try it out loud first, then on paper. Sometimes hearing the words helps a lot.",
	"Every good writer practices. Let's start small with one sentence and make it great.",
}

var generalAcademicResponses = []string{
	"I'm your learning helper! Tell me a bit more about what you're working on and we'll figure it out.",
	"Let me try explaining that differently. What's the part you'd like to understand better?",
	"Good questions are how we learn. Let's take it slowly, one piece at a time.",
}
