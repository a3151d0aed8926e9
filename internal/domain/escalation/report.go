package escalation

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

const (
	// CrashAttachmentName is the file name of the trace sent to operators.
	CrashAttachmentName = "crash.txt"
	// ReportSiteHeader precedes a stack taken when the report was built,
	// for failures that carried none of their own.
	ReportSiteHeader = "Captured at report site:"
)

// CrashReport is what operators receive for one unexpected failure.
type CrashReport struct {
	ID             string
	ContextMessage string
	TraceText      string
	// CauseTraceText is set only when the failure wraps another error.
	CauseTraceText string
}

// Attachment renders the trace file.
func (r CrashReport) Attachment() chat.File {
	var b strings.Builder
	b.WriteString(r.TraceText)
	if r.CauseTraceText != "" {
		b.WriteString("\nOriginal error:\n")
		b.WriteString(r.CauseTraceText)
	}
	return chat.File{Name: CrashAttachmentName, Content: []byte(b.String())}
}

// Message renders the operator message.
func (r CrashReport) Message() chat.Message {
	return chat.Message{
		Content: r.ContextMessage + "\nIncident: " + r.ID,
		Files:   []chat.File{r.Attachment()},
	}
}

// traces returns the trace of err and, when it wraps a cause, the cause's.
func traces(err error) (string, string) {
	var outer *platformerrors.PlatformError
	var trace string
	var cause error
	if errors.As(err, &outer) && len(outer.Stack) > 0 {
		trace = err.Error() + "\n\n" + string(outer.Stack)
		cause = outer.Err
	} else {
		trace = err.Error() + "\n\n" + ReportSiteHeader + "\n" + string(debug.Stack())
		cause = errors.Unwrap(err)
	}

	if cause == nil {
		return trace, ""
	}

	causeTrace := cause.Error()
	if origin := deepest(cause); origin != nil && origin != outer && len(origin.Stack) > 0 {
		causeTrace += "\n\n" + string(origin.Stack)
	}
	return trace, causeTrace
}

// deepest returns the innermost PlatformError of the chain.
func deepest(err error) *platformerrors.PlatformError {
	var found *platformerrors.PlatformError
	for err != nil {
		if perr, ok := err.(*platformerrors.PlatformError); ok {
			found = perr
		}
		err = errors.Unwrap(err)
	}
	return found
}

// userMessage returns the message of the innermost error carrying the given type.
func userMessage(err error, errorType platformerrors.ErrorType) string {
	var msg string
	for e := err; e != nil; e = errors.Unwrap(e) {
		if perr, ok := e.(*platformerrors.PlatformError); ok && perr.Type == errorType {
			msg = perr.Message
		}
	}
	if msg == "" {
		return err.Error()
	}
	return msg
}

func commandContext(ic InvocationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Unexpected exception in command `%s`\n", ic.Command)
	fmt.Fprintf(&b, "User: %s (%s)\n", ic.UserName, ic.UserID)
	if ic.GuildID != "" {
		fmt.Fprintf(&b, "Guild: %s (%s)\n", ic.GuildName, ic.GuildID)
	}
	fmt.Fprintf(&b, "Channel: <#%s> (%s)\n", ic.ChannelID, ic.ChannelID)
	fmt.Fprintf(&b, "Message URL: %s", ic.JumpURL)
	return b.String()
}

func eventContext(event string, details []string) string {
	msg := fmt.Sprintf("Unexpected exception in event: %s", event)
	if len(details) > 0 {
		msg += "\nEvent args: " + strings.Join(details, ", ")
	}
	return msg
}
