package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/use-agent/priceprobe/classify"
	"github.com/use-agent/priceprobe/textnorm"
)

// action is what the enumeration loop does with one node.
type action int

const (
	actSkip action = iota
	actFollow
	actExpand
)

// verdict is the per-node decision. A skip always carries a reason.
type verdict struct {
	action action
	reason string
	ref    classify.Reference
	key    string
}

func skipped(reason string) verdict {
	return verdict{action: actSkip, reason: reason}
}

// Skip reasons beyond the classify.Reason values.
const (
	reasonStale          = "stale"
	reasonNotInteractive = "not_interactive"
	reasonUnsupported    = "unsupported_scheme"
	reasonClickFailed    = "click_failed"
	reasonUnchanged      = "unchanged"
	reasonNavFailed      = "navigation_failed"
	reasonDuplicate      = "duplicate"
)

// scanTags enumerates every configured tag once, clicking expanders as it
// goes and collecting followable references. References are returned for
// the caller to follow after enumeration, since navigating away would
// invalidate the remaining node handles.
func (e *Engine) scanTags(ctx context.Context, sess Session, st *state, fr *frame) ([]classify.Reference, error) {
	var pending []classify.Reference
	queued := make(map[string]struct{})
	ordinals := make(map[string]int)

	for _, tag := range e.cfg.Tags {
		nodes, err := sess.FindByTag(ctx, tag)
		if err != nil {
			if f := fatal(ctx, err); f != nil {
				return nil, f
			}
			slog.Debug("enumerate tag failed", "tag", tag, "error", err)
			continue
		}

		for _, node := range nodes {
			if e.exhausted(st) {
				return pending, nil
			}

			v := e.inspect(st, fr, tag, node, ordinals)
			switch v.action {
			case actSkip:
				st.skip(v.reason)
			case actFollow:
				key := classify.Canonical(v.ref.Target)
				if _, dup := queued[key]; dup {
					st.skip(reasonDuplicate)
					continue
				}
				queued[key] = struct{}{}
				pending = append(pending, v.ref)
			case actExpand:
				navigated, err := e.expand(ctx, sess, st, fr, node, v.key)
				if err != nil {
					return nil, err
				}
				// The remaining handles belong to the document we left.
				if navigated {
					return pending, nil
				}
			}
		}
	}
	return pending, nil
}

// inspect classifies one node without touching the page. ordinals counts
// expanders per fingerprint within one scan pass.
func (e *Engine) inspect(st *state, fr *frame, tag string, node Node, ordinals map[string]int) verdict {
	if !classify.IsInteractive(node) {
		return skipped(reasonNotInteractive)
	}
	href, err := node.Attribute("href")
	if err != nil {
		return skipped(reasonStale)
	}
	onclick, err := node.Attribute("onclick")
	if err != nil {
		return skipped(reasonStale)
	}
	text, err := node.Text()
	if err != nil {
		return skipped(reasonStale)
	}

	ref := classify.ParseReference(href, onclick, fr.pageURL)
	switch ref.Kind {
	case classify.KindUnsupported:
		return skipped(reasonUnsupported)

	case classify.KindNavigate, classify.KindScript:
		if r := classify.Check(ref.Target, text, fr.pageURL, st.hist, e.deny); r != classify.ReasonNone {
			return skipped(string(r))
		}
		return verdict{action: actFollow, ref: ref}

	default:
		if e.deny.BannedTerm(text) {
			return skipped(string(classify.ReasonBannedTerm))
		}
		base := actionKey(fr.pageURL, tag, node, text)
		ordinals[base]++
		key := fmt.Sprintf("%s|%d", base, ordinals[base])
		if st.hist.Covers(key) {
			return skipped(string(classify.ReasonVisited))
		}
		return verdict{action: actExpand, key: key}
	}
}

// fingerprintAttrs are the attributes that tell otherwise identical
// expanders apart. class and aria-expanded are left out: accordions
// toggle them on click.
var fingerprintAttrs = []string{
	"id", "name", "role", "type", "value", "title",
	"aria-label", "aria-controls", "data-target", "data-bs-target", "data-id",
}

// actionKey fingerprints a pure-click node by page, tag, attributes and
// text. Nodes sharing a fingerprint are told apart by the ordinal inspect
// appends, so each expander is clicked at most once per crawl.
func actionKey(pageURL, tag string, node Node, text string) string {
	var b strings.Builder
	b.WriteString("action:")
	b.WriteString(classify.Canonical(pageURL))
	b.WriteString("|")
	b.WriteString(strings.ToLower(tag))
	for _, attr := range fingerprintAttrs {
		if v, err := node.Attribute(attr); err == nil && strings.TrimSpace(v) != "" {
			b.WriteString("|" + attr + "=" + strings.TrimSpace(v))
		}
	}
	b.WriteString("|")
	b.WriteString(textnorm.Normalize(text))
	return b.String()
}

// expand clicks node and, if the document changes, merges the new
// snapshot into the frame. A click that navigates away is handled like a
// followed reference: the new page is crawled one level deeper and the
// session is returned to the frame's page. navigated reports that case.
func (e *Engine) expand(ctx context.Context, sess Session, st *state, fr *frame, node Node, key string) (navigated bool, err error) {
	st.hist.Add(key)

	before, err := sess.ContentSignature(ctx)
	if err != nil {
		if f := fatal(ctx, err); f != nil {
			return false, f
		}
		st.skip(reasonClickFailed)
		return false, nil
	}

	if err := node.Click(ctx); err != nil {
		if f := fatal(ctx, err); f != nil {
			return false, f
		}
		st.skip(reasonClickFailed)
		return false, nil
	}

	changed, err := e.waitForChange(ctx, sess, before)
	if err != nil {
		return false, err
	}

	after, err := sess.CurrentURL(ctx)
	if err != nil {
		if f := fatal(ctx, err); f != nil {
			return false, f
		}
		after = fr.pageURL
	}
	if classify.Canonical(after) != classify.Canonical(fr.pageURL) {
		if !st.hist.Add(after) {
			st.skip(string(classify.ReasonVisited))
			return true, e.returnTo(ctx, sess, fr.pageURL)
		}
		st.stats.Followed++
		sub, err := e.enter(ctx, sess, st, fr.depth+1, after)
		if err != nil {
			return true, err
		}
		fr.merge(sub)
		return true, e.returnTo(ctx, sess, fr.pageURL)
	}

	if !changed {
		st.skip(reasonUnchanged)
		return false, nil
	}

	snap, err := e.snapshot(ctx, sess)
	if err != nil {
		return false, err
	}
	st.stats.Expansions++
	fr.merge(snap)
	return false, nil
}

// waitForChange polls the content signature until it differs from before
// or ClickWait elapses. A timeout is not an error.
func (e *Engine) waitForChange(ctx context.Context, sess Session, before string) (bool, error) {
	deadline := e.now().Add(e.cfg.ClickWait)
	for {
		sig, err := sess.ContentSignature(ctx)
		if err != nil {
			if f := fatal(ctx, err); f != nil {
				return false, f
			}
		} else if sig != before {
			return true, nil
		}

		if !e.now().Before(deadline) {
			return false, nil
		}
		if err := e.sleep(ctx, e.cfg.PollInterval); err != nil {
			return false, err
		}
	}
}

// followAll follows the references batched by one scan, depth-first, and
// returns to the frame's page after each.
func (e *Engine) followAll(ctx context.Context, sess Session, st *state, fr *frame, refs []classify.Reference) error {
	for _, ref := range refs {
		if e.exhausted(st) {
			return nil
		}
		// An earlier sibling subtree may have reached it already.
		if st.hist.Covers(ref.Target) {
			st.skip(string(classify.ReasonVisited))
			continue
		}
		if err := e.follow(ctx, sess, st, fr, ref); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) follow(ctx context.Context, sess Session, st *state, fr *frame, ref classify.Reference) error {
	st.hist.Add(ref.Target)

	before, err := sess.CurrentURL(ctx)
	if err != nil {
		if f := fatal(ctx, err); f != nil {
			return f
		}
		before = fr.pageURL
	}

	var sigBefore string
	if ref.Kind == classify.KindScript {
		sigBefore, err = sess.ContentSignature(ctx)
		if f := fatal(ctx, err); f != nil {
			return f
		}
		err = sess.RunScript(ctx, ref.Target)
	} else {
		err = sess.Navigate(ctx, ref.Target)
	}
	if err != nil {
		if f := fatal(ctx, err); f != nil {
			return f
		}
		slog.Debug("follow failed", "ref", ref.Target, "kind", ref.Kind.String(), "error", err)
		st.skip(reasonNavFailed)
		return e.returnTo(ctx, sess, before)
	}
	if err := e.sleep(ctx, e.cfg.NavigationSettle); err != nil {
		return err
	}

	after, err := sess.CurrentURL(ctx)
	if err != nil {
		if f := fatal(ctx, err); f != nil {
			return f
		}
		after = before
	}

	// A handler that did not navigate behaves like an expander.
	if ref.Kind == classify.KindScript && classify.Canonical(after) == classify.Canonical(before) {
		changed, err := e.waitForChange(ctx, sess, sigBefore)
		if err != nil {
			return err
		}
		if !changed {
			st.skip(reasonUnchanged)
			return nil
		}
		snap, err := e.snapshot(ctx, sess)
		if err != nil {
			return err
		}
		st.stats.Expansions++
		fr.merge(snap)
		return nil
	}

	entry := ref.Target
	if ref.Kind == classify.KindScript {
		if !st.hist.Add(after) {
			st.skip(string(classify.ReasonVisited))
			return e.returnTo(ctx, sess, before)
		}
		entry = after
	}
	st.stats.Followed++
	sub, err := e.enter(ctx, sess, st, fr.depth+1, entry)
	if err != nil {
		return err
	}
	fr.merge(sub)
	return e.returnTo(ctx, sess, before)
}

// returnTo brings the session back to target after a follow: history back
// first, direct navigation if that did not land on target.
func (e *Engine) returnTo(ctx context.Context, sess Session, target string) error {
	if e.at(ctx, sess, target) {
		return ctx.Err()
	}

	if err := sess.Back(ctx); err != nil {
		if f := fatal(ctx, err); f != nil {
			return f
		}
	} else {
		if err := e.sleep(ctx, e.cfg.NavigationSettle); err != nil {
			return err
		}
		if e.at(ctx, sess, target) {
			return ctx.Err()
		}
	}

	if err := sess.Navigate(ctx, target); err != nil {
		if f := fatal(ctx, err); f != nil {
			return f
		}
		slog.Debug("return navigation failed", "url", target, "error", err)
		return nil
	}
	return e.sleep(ctx, e.cfg.NavigationSettle)
}

func (e *Engine) at(ctx context.Context, sess Session, target string) bool {
	cur, err := sess.CurrentURL(ctx)
	return err == nil && classify.Canonical(cur) == classify.Canonical(target)
}
