// Package prompt embeds the instruction templates sent to the generation
// service. The embed is compile-time; formatting is plain Sprintf over the
// trimmed templates.
package prompt

import (
	_ "embed"
	"fmt"
	"strings"
)

var (
	//go:embed template/classifier_system.txt
	classifierSystemRaw string

	//go:embed template/classifier_user.txt
	classifierUserRaw string

	//go:embed template/responder_system.txt
	responderSystemRaw string

	//go:embed template/responder_user.txt
	responderUserRaw string
)

// NoContextFallback stands in for the context block when a turn produced
// neither tool results nor retrieved knowledge.
const NoContextFallback = "无额外上下文"

// ClassifierSystem is the fixed system instruction for the classify stage.
func ClassifierSystem() string {
	return strings.TrimSpace(classifierSystemRaw)
}

// ClassifierUser builds the classify-stage user instruction from the
// formatted recent history and the latest user question.
func ClassifierUser(history, question string) string {
	return fmt.Sprintf(strings.TrimSpace(classifierUserRaw), history, question)
}

// ResponderSystem builds the generate-stage persona instruction.
func ResponderSystem(serviceName, companyName, intent string) string {
	return fmt.Sprintf(strings.TrimSpace(responderSystemRaw), serviceName, companyName, intent)
}

// ResponderUser builds the generate-stage user instruction from the formatted
// history, the context block, and the latest user question.
func ResponderUser(history, context, question string) string {
	return fmt.Sprintf(strings.TrimSpace(responderUserRaw), history, context, question)
}
