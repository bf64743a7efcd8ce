package tui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/monolythium/ubuntu-fetcher/internal/core"
)

// Prompts and notices shared by both sessions.
const (
	urlPrompt     = "🌍 Please enter the image URL (or 'quit' to exit): "
	anotherPrompt = "🌟 Fetch another image? (y/n): "
	retryPrompt   = "🔄 Would you like to try another URL? (y/n): "

	emptyNotice  = "⚠️  Ubuntu teaches mindfulness - please provide a URL"
	schemeNotice = "🔗 Ubuntu suggests using full URLs (http:// or https://)"

	separator = "============================================================"
)

var bannerLines = []string{
	"Ubuntu Image Fetcher",
	`"I am because we are"`,
	"",
	"A tool for mindfully collecting images from the web",
	"with respect and community spirit",
}

var welcomeLines = []string{
	"Welcome, community member! 🙏",
	"Let's mindfully gather images from our global digital community.",
}

var closingLines = []string{
	"✨ Thank you for practicing Ubuntu digital community values!",
	"   Your respectful approach strengthens our shared web space.",
}

// Farewell identifies how a session ended.
type Farewell int

const (
	FarewellNone Farewell = iota
	FarewellQuit
	FarewellDeclined
	FarewellInterrupt
	FarewellEOF
)

func (f Farewell) lines() []string {
	switch f {
	case FarewellQuit:
		return []string{
			"🙏 Ubuntu blessings on your journey!",
			"   May your digital community connections flourish.",
		}
	case FarewellInterrupt:
		return []string{
			"🙏 Ubuntu understanding - you wish to leave peacefully.",
			"   Your community spirit is appreciated.",
		}
	case FarewellEOF:
		return []string{"👋 Peaceful departure in Ubuntu style."}
	default:
		return nil
	}
}

func isQuit(s string) bool {
	switch strings.ToLower(s) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}

// checkInput returns the notice to print for URL input that should not
// start an attempt, or "" when the input is fetchable.
func checkInput(s string) string {
	if s == "" {
		return emptyNotice
	}
	if !core.IsFetchableURL(s) {
		return schemeNotice
	}
	return ""
}

func nextPrompt(r *core.FetchResult) string {
	if r != nil && r.Success {
		return anotherPrompt
	}
	return retryPrompt
}

type tone int

const (
	toneNormal tone = iota
	toneMuted
	toneSuccess
	toneWarning
	toneDanger
)

type line struct {
	text string
	tone tone
}

// outcomeLines renders the end of an attempt.
func outcomeLines(r *core.FetchResult) []line {
	if r.Success {
		return []line{
			{"✅ Successfully fetched: " + r.Filename, toneSuccess},
			{"📏 File size: " + humanize.IBytes(uint64(r.Bytes)), toneNormal},
			{"🎯 Image saved to: " + r.Path, toneNormal},
			{"🌟 Connection strengthened. Community enriched.", toneMuted},
		}
	}

	switch r.Kind {
	case core.KindTimeout:
		return []line{
			{"⏱️  Connection timed out - the web community is busy", toneWarning},
			{"   Ubuntu teaches patience. Perhaps try again later.", toneMuted},
		}
	case core.KindConnection:
		return []line{
			{"🌐 Unable to reach the community resource", toneDanger},
			{"   Ubuntu reminds us: connectivity challenges are temporary", toneMuted},
		}
	case core.KindHTTPStatus:
		return []line{
			{fmt.Sprintf("🚫 Server responded with status %d", r.StatusCode), toneDanger},
			{"   Ubuntu teaches respect - the server has spoken", toneMuted},
		}
	case core.KindContentValidation:
		return []line{
			{"🖼️  Content validation failed: " + r.Error, toneWarning},
			{"   Ubuntu values authenticity - this may not be an image", toneMuted},
		}
	case core.KindPermission:
		return []line{
			{"🔒 Permission denied saving to directory", toneDanger},
			{"   Ubuntu teaches: community resources need proper access", toneMuted},
		}
	default:
		return []line{
			{"❌ Unexpected challenge encountered: " + r.Error, toneDanger},
			{"   Ubuntu philosophy: from challenges, we learn and grow", toneMuted},
		}
	}
}

// progressLine formats a progress report. Steps without a user-facing
// message return false.
func progressLine(step, message string) (string, bool) {
	switch step {
	case "connect":
		return "🌐 " + message + "\n   Approaching with Ubuntu spirit - respect and mindfulness...", true
	case "directory":
		return "📁 " + message, true
	case "large-file":
		return "⚠️  " + message, true
	case "save":
		return "💾 " + message, true
	}
	return "", false
}
