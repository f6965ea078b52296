package negotiate

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/drake/gotelnet"
)

// unknownCacheSize bounds the memoization table. 256 covers every possible
// option byte, so in practice this never evicts; the cap exists purely so
// a pathological caller can't grow it unbounded.
const unknownCacheSize = 256

// unknownCache memoizes UnknownOptionHandler decisions, the same pattern
// teacher's engine/lua.go uses for regexCache (*lru.Cache[string,
// *regexp.Regexp]): the handler is assumed pure (invariant 5), so once
// asked about an option ID we never ask again.
type unknownCache struct {
	handler UnknownOptionHandler
	cache   *lru.Cache[telnet.Option, bool]
}

func newUnknownCache(handler UnknownOptionHandler) *unknownCache {
	c, _ := lru.New[telnet.Option, bool](unknownCacheSize)
	return &unknownCache{handler: handler, cache: c}
}

func (u *unknownCache) accepts(opt telnet.Option) bool {
	if v, ok := u.cache.Get(opt); ok {
		return v
	}
	v := u.handler(opt)
	u.cache.Add(opt, v)
	return v
}
