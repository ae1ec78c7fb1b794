// Package resolver maps user supplied version tokens ("latest", "18",
// "20.13", "v20.13.1") to concrete versions.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kira1928/nodeswitch/pkg/version"
)

var (
	// ErrVersionNotFound 表示没有候选版本满足该 token
	ErrVersionNotFound = errors.New("version not found")
	// ErrInvalidToken 表示 token 既不是 latest、主版本号，也不是版本前缀
	ErrInvalidToken = errors.New("invalid version token")
)

// Kind is the shape of a parsed token.
type Kind int

const (
	KindLatest Kind = iota
	KindMajor
	KindPrefix
)

// Token is a parsed user token.
type Token struct {
	Kind  Kind
	Major uint64 // KindMajor
	Text  string // normalized text without the leading "v"
}

// TokenLatest selects the newest version of the context.
const TokenLatest = "latest"

// ParseToken 解析用户输入。只有包含 "." 的输入才按前缀处理，纯数字视为主版本号
func ParseToken(raw string) (Token, error) {
	s := strings.TrimSpace(raw)
	if s == TokenLatest {
		return Token{Kind: KindLatest, Text: s}, nil
	}
	s = strings.TrimPrefix(s, "v")
	if s == "" {
		return Token{}, fmt.Errorf("%w: %q", ErrInvalidToken, raw)
	}
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return Token{}, fmt.Errorf("%w: %q", ErrInvalidToken, raw)
	}
	for _, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") != "" {
			return Token{}, fmt.Errorf("%w: %q", ErrInvalidToken, raw)
		}
	}
	if len(parts) == 1 {
		major, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return Token{}, fmt.Errorf("%w: %q", ErrInvalidToken, raw)
		}
		return Token{Kind: KindMajor, Major: major, Text: s}, nil
	}
	return Token{Kind: KindPrefix, Text: s}, nil
}

// Source selects where candidates come from.
type Source int

const (
	// Remote 用于 install：候选来自远端索引
	Remote Source = iota
	// Local 用于 use/set/remove：候选来自已安装版本
	Local
)

func (s Source) String() string {
	if s == Remote {
		return "remote"
	}
	return "local"
}

// IndexFetcher is satisfied by *index.Client.
type IndexFetcher interface {
	FetchIndex(ctx context.Context) ([]version.Version, error)
}

// Context 描述解析时的候选来源
type Context struct {
	Source    Source
	Index     IndexFetcher      // Remote
	Installed []version.Version // Local
}

// Resolve 按优先级解析 token：latest > 主版本号 > 前缀/精确版本
func Resolve(ctx context.Context, raw string, rc Context) (version.Version, error) {
	tok, err := ParseToken(raw)
	if err != nil {
		return version.Version{}, err
	}
	switch rc.Source {
	case Remote:
		if rc.Index == nil {
			return version.Version{}, errors.New("remote resolution requires an index")
		}
		candidates, err := rc.Index.FetchIndex(ctx)
		if err != nil {
			return version.Version{}, err
		}
		return resolveRemote(tok, candidates)
	case Local:
		return resolveLocal(tok, rc.Installed)
	default:
		return version.Version{}, fmt.Errorf("unknown resolution source %d", rc.Source)
	}
}

// resolveRemote 假定 candidates 已按最新在前排序（index.FetchIndex 的约定）
func resolveRemote(tok Token, candidates []version.Version) (version.Version, error) {
	switch tok.Kind {
	case KindLatest:
		if len(candidates) > 0 {
			return candidates[0], nil
		}
	case KindMajor:
		for _, v := range candidates {
			if v.Major() == tok.Major {
				return v, nil
			}
		}
	case KindPrefix:
		want, err := version.Parse(tok.Text)
		if err != nil {
			// 远端要求精确匹配，残缺的前缀不可能命中
			break
		}
		for _, v := range candidates {
			if v.Equal(want) {
				return v, nil
			}
		}
	}
	return version.Version{}, fmt.Errorf("%w: %s in remote index", ErrVersionNotFound, tok.Text)
}

func resolveLocal(tok Token, installed []version.Version) (version.Version, error) {
	var matches []version.Version
	for _, v := range installed {
		switch tok.Kind {
		case KindLatest:
			matches = append(matches, v)
		case KindMajor:
			if v.Major() == tok.Major {
				matches = append(matches, v)
			}
		case KindPrefix:
			if hasComponentPrefix(v.String(), tok.Text) {
				matches = append(matches, v)
			}
		}
	}
	best, ok := version.Latest(matches)
	if !ok {
		return version.Version{}, fmt.Errorf("%w: %s is not installed", ErrVersionNotFound, tok.Text)
	}
	return best, nil
}

// hasComponentPrefix matches whole components only, so "20.1" does not match "20.13.0".
func hasComponentPrefix(s, prefix string) bool {
	return s == prefix || strings.HasPrefix(s, prefix+".")
}
