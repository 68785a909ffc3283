package agents

import "fmt"

// Agent names as they appear in the project's build log
const (
	AgentHTML      = "HTML Agent"
	AgentCSS       = "CSS Agent"
	AgentJS        = "JS Agent"
	AgentReview    = "Review Agent"
	AgentPublish   = "Publish Agent"
	AgentSubpages  = "Subpages Agent"
	AgentUser      = "user"
	AgentAssistant = "assistant"
)

const (
	msgHTMLStart    = "Started building the page structure 🚀"
	msgHTMLDone     = "Finished the page structure ✅"
	msgCSSStart     = "Styling the design now 🎨"
	msgCSSDone      = "Styling is done, the page looks great ✨"
	msgJSStart      = "Adding interactivity and effects ⚡"
	msgJSDone       = "Interactivity is ready ✅"
	msgReviewStart  = "Reviewing the code and polishing the details 🔍"
	msgReviewDone   = "Review finished, everything is polished ✅"
	msgPublishStart = "Publishing the project 🌐"
	msgPublishDone  = "Your project is live 🎉"

	msgFallbackUsed    = "Used a backup provider temporarily ✅"
	msgReviewSkipped   = "Couldn't complete the review, keeping the code as it is ⚠️"
	msgNoLinks         = "No links found to create subpages"
	msgSubpagesExist   = "All subpages already exist ✓"
	msgContinueDefault = "Changes applied successfully"
)

func msgRotated(index int) string {
	return fmt.Sprintf("Usage limit reached, switched to API key #%d 🔄", index)
}

func msgReviewRetry(attempt, max int) string {
	return fmt.Sprintf("Retrying the review (attempt %d of %d) ⏳", attempt, max)
}

func msgFailed(err error) string {
	return fmt.Sprintf("Build stopped: %v ❌", err)
}

func msgSubpagesCreating(n int) string {
	return fmt.Sprintf("Creating %d subpages... 📄", n)
}

func msgSubpagesCreated(n int) string {
	return fmt.Sprintf("Created %d subpages ✅", n)
}

func msgSubpagesFailed(err error) string {
	return fmt.Sprintf("Couldn't create subpages: %v ⚠️", err)
}
