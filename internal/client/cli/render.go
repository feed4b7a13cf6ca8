package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/upload"
)

const excerptLen = 60

func renderEntries(w io.Writer, entries []models.FeedEntry) {
	for _, e := range entries {
		_, _ = fmt.Fprintln(w, entryLine(e))
	}
}

func entryLine(e models.FeedEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s ♥ %d", e.ID, e.LikeCount)
	if e.IsLiked {
		b.WriteString(" (you)")
	}
	if e.IsSaved {
		b.WriteString(" [saved]")
	}
	fmt.Fprintf(&b, "  love %d  insightful %d  celebrate %d",
		e.Reactions.Love, e.Reactions.Insightful, e.Reactions.Celebrate)
	if e.UserReaction != models.ReactionNone {
		fmt.Fprintf(&b, " (you: %s)", strings.ToLower(string(e.UserReaction)))
	}
	fmt.Fprintf(&b, "\n             %s", excerpt(e.Content))
	if len(e.Tags) > 0 {
		fmt.Fprintf(&b, "  #%s", strings.Join(e.Tags, " #"))
	}
	return b.String()
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= excerptLen {
		return s
	}
	return string(r[:excerptLen-1]) + "…"
}

func renderUnits(w io.Writer, units []upload.UnitView) {
	for _, u := range units {
		_, _ = fmt.Fprintf(w, "%s  %-24s %8d  %-10s %s\n", u.ID, u.Name, u.Size, u.ContentType, unitState(u.State))
	}
}

func unitState(s upload.State) string {
	switch st := s.(type) {
	case upload.Uploaded:
		if st.Dimensions != nil {
			return fmt.Sprintf("uploaded %dx%d", st.Dimensions.Width, st.Dimensions.Height)
		}
		return "uploaded"
	case upload.Failed:
		return "failed: " + st.Message
	default:
		return s.Status().String()
	}
}
