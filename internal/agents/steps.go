package agents

import (
	"context"
	"fmt"

	"codeplay/internal/ai"
	"codeplay/internal/metrics"
	"codeplay/internal/store"
	"codeplay/pkg/models"

	"go.uber.org/zap"
)

const (
	creativeTemperature = 0.7
	reviewTemperature   = 0.3
	maxOutputTokens     = 8192
)

// stepOutput is what a step commits together with the next status. done,
// when set, replaces the step's default completion message.
type stepOutput struct {
	fields store.Fields
	done   string
}

type stepFunc func(ctx context.Context, r *run) (stepOutput, error)

// step is one unit of pipeline work, executed while the run is in status
type step struct {
	status models.BuildStatus
	agent  string
	start  string
	done   string
	run    stepFunc
}

var pipeline = []step{
	{models.StatusHTML, AgentHTML, msgHTMLStart, msgHTMLDone,
		generateStep(RoleHTML, "html_code", func(a *Artifacts, s string) { a.HTML = s })},
	{models.StatusCSS, AgentCSS, msgCSSStart, msgCSSDone,
		generateStep(RoleCSS, "css_code", func(a *Artifacts, s string) { a.CSS = s })},
	{models.StatusJS, AgentJS, msgJSStart, msgJSDone,
		generateStep(RoleJS, "js_code", func(a *Artifacts, s string) { a.JS = s })},
	{models.StatusReview, AgentReview, msgReviewStart, msgReviewDone, reviewStep},
	{models.StatusPublish, AgentPublish, msgPublishStart, msgPublishDone, publishStep},
}

// generateStep produces one artifact from a single prompt
func generateStep(role Role, column string, assign func(*Artifacts, string)) stepFunc {
	return func(ctx context.Context, r *run) (stepOutput, error) {
		prompt, err := RenderPrompt(role, PromptData{Idea: r.bc.Idea, Artifacts: r.bc.Artifacts})
		if err != nil {
			return stepOutput{}, err
		}
		res, err := r.sess.Generate(ctx, ai.CompletionRequest{
			Prompt:          prompt,
			Temperature:     creativeTemperature,
			MaxOutputTokens: maxOutputTokens,
		}, ai.DefaultRetry)
		if err != nil {
			return stepOutput{}, fmt.Errorf("%s generation failed: %w", role, err)
		}
		if isBlank(res.Text) {
			return stepOutput{}, fmt.Errorf("%s generation returned no code", role)
		}
		assign(&r.bc.Artifacts, res.Text)
		return stepOutput{fields: store.Fields{column: res.Text}}, nil
	}
}

// reviewStep never fails on provider or parse errors: the pre-review
// artifacts pass through unchanged instead.
func reviewStep(ctx context.Context, r *run) (stepOutput, error) {
	before := r.bc.Artifacts
	prompt, err := RenderPrompt(RoleReview, PromptData{Idea: r.bc.Idea, Artifacts: before})
	if err != nil {
		return stepOutput{}, err
	}

	reviewed, ok := before, false
	res, err := r.sess.Generate(ctx, ai.CompletionRequest{
		Prompt:          prompt,
		Temperature:     reviewTemperature,
		MaxOutputTokens: maxOutputTokens,
	}, ai.ReviewRetry)
	switch {
	case ctx.Err() != nil:
		return stepOutput{}, ctx.Err()
	case err != nil:
		r.log.Warn("review generation failed, keeping pre-review code", zap.Error(err))
	default:
		var out Artifacts
		if perr := decodeModelJSON(res.Text, &out); perr != nil {
			r.log.Warn("review output is not valid JSON, keeping pre-review code",
				zap.Error(perr), zap.Int("chars", len(res.Text)))
		} else if out.empty() {
			r.log.Warn("review output has no code fields, keeping pre-review code")
		} else {
			reviewed, ok = before.mergeNonEmpty(out), true
		}
	}

	out := stepOutput{fields: store.Fields{
		"html_code": reviewed.HTML,
		"css_code":  reviewed.CSS,
		"js_code":   reviewed.JS,
	}}
	if !ok {
		metrics.Get().ReviewPassThroughs.Inc()
		out.done = msgReviewSkipped
	}
	r.bc.Artifacts = reviewed
	return out, nil
}

func publishStep(_ context.Context, r *run) (stepOutput, error) {
	r.bc.Published = true
	return stepOutput{fields: store.Fields{"is_published": true}}, nil
}
