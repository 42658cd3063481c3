package responder

import (
	"context"

	"github.com/brightling/companiond/internal/core/ports"
)

// Emotional handles feelings: comfort, encouragement, and gentle listening.
// Stateless per call.
type Emotional struct{}

func NewEmotional() *Emotional { return &Emotional{} }

func (e *Emotional) Name() string { return "emotional" }

func (e *Emotional) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	switch {
	case containsAny(req.Text, "sad", "cry", "crying", "upset", "miss"):
		return pick(sadResponses, req), nil
	case containsAny(req.Text, "happy", "excited", "fun"):
		return pick(happyResponses, req), nil
	case containsAny(req.Text, "angry", "mad"):
		return pick(angryResponses, req), nil
	case containsAny(req.Text, "scared", "afraid", "nervous", "worried"):
		return pick(scaredResponses, req), nil
	case containsAny(req.Text, "lonely", "alone"):
		return pick(lonelyResponses, req), nil
	default:
		return pick(generalEmotionalResponses, req), nil
	}
}

var sadResponses = []string{
	"I hear that you're feeling sad, and that's okay. Everyone feels that way sometimes. Would you like to tell me more about it?",
	"Feeling sad can be heavy. I'm here and I'm listening. What happened?",
	"It's okay to feel sad. Taking a deep breath together can help. I'm right here with you.",
}

var happyResponses = []string{
	"That's wonderful! I love hearing that you're happy. What made today so good?",
	"Sharing happy things makes them even bigger! Tell me all about it.",
	"Your happiness makes me happy too. What was the best part?",
}

var angryResponses = []string{
	"Feeling angry is normal, and it helps to talk about it. Take a slow breath and tell me what happened.",
	"It sounds like something really bothered you. I'm listening. What's going on?",
	"When I hear you're angry, I want to help. Let's take three deep breaths together first.",
}

var scaredResponses = []string{
	"Feeling scared means you're paying attention to keeping yourself safe. Tell me what's worrying you and we'll think it through together.",
	"Lots of brave people feel scared sometimes. What is it that feels frightening?",
	"I'm here with you. Let's talk about what feels scary, one small piece at a time.",
}

var lonelyResponses = []string{
	"I'm here to keep you company, so you're not alone right now. Want to chat or play a word game?",
	"Feeling lonely is hard. I'm glad you told me. What would make right now feel a little better?",
	"You've got me to talk to anytime. Let's find something fun to do together.",
}

var generalEmotionalResponses = []string{
	"I'm here for you, whatever you're feeling. You can share anything with me and I'll listen.",
	"However you're feeling right now is okay. Would you like to talk about it?",
	"I'm listening, and I care about how you feel. Take your time.",
}
