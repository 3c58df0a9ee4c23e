package scrape

import (
	"strings"

	"jobapply-engine/internal/config"
	"jobapply-engine/internal/scrape/util"
)

// Policy is the keyword profile a title is matched against. Keywords are
// compared case-insensitively; role order only decides which role is
// reported in MatchDecision.MatchedRole, never whether a title matches.
type Policy struct {
	RoleKeywords  []string
	LevelKeywords []string
	ExemptRoles   []string // roles accepted without a level keyword
	RequireRemote bool
}

func PolicyFromConfig(cfg config.Config) Policy {
	return Policy{
		RoleKeywords:  cfg.Filters.RoleKeywords,
		LevelKeywords: cfg.Filters.LevelKeywords,
		ExemptRoles:   cfg.Filters.RolesWithoutLevelCheck,
		RequireRemote: cfg.Filters.RequireRemote,
	}
}

type MatchDecision struct {
	MatchedRole      string // "" when no role keyword matched
	IsExempt         bool
	PassesLevelCheck bool
	IsRemoteOK       bool
}

func (d MatchDecision) IsMatch() bool {
	return d.MatchedRole != "" && (d.IsExempt || d.PassesLevelCheck) && d.IsRemoteOK
}

func Decide(title string, p Policy) MatchDecision {
	text := util.FoldText(title)

	var d MatchDecision
	for _, role := range p.RoleKeywords {
		if containsKeyword(text, role) {
			d.MatchedRole = role
			break
		}
	}

	d.IsRemoteOK = !p.RequireRemote || strings.Contains(text, "remote")

	if d.MatchedRole == "" {
		return d
	}

	matched := util.FoldText(d.MatchedRole)
	for _, r := range p.ExemptRoles {
		if util.FoldText(r) == matched {
			d.IsExempt = true
			break
		}
	}
	for _, lvl := range p.LevelKeywords {
		if containsKeyword(text, lvl) {
			d.PassesLevelCheck = true
			break
		}
	}
	return d
}

func IsMatch(title string, p Policy) bool {
	return Decide(title, p).IsMatch()
}

// containsKeyword expects foldedText to be folded already.
func containsKeyword(foldedText, keyword string) bool {
	k := util.FoldText(keyword)
	return k != "" && strings.Contains(foldedText, k)
}
