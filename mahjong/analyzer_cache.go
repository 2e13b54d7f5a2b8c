package mahjong

// 缓存键按 手牌计数+副露形状+胡张+自摸+七对开关 编码。
// 其余计番开关不影响拆解结果，不进键。

func analyzeCacheKey(working Hand27, melds []Meld, winningTile Tile, selfDraw bool, hu HuTypes) string {
	buf := make([]byte, 0, IndexCount+2+len(melds)*6)
	for _, c := range working {
		buf = append(buf, '0'+c)
	}
	buf = append(buf, byte('A'+winningTile.Index()))
	flags := byte(0)
	if selfDraw {
		flags |= 1
	}
	if hu.SevenPairs {
		flags |= 2
	}
	buf = append(buf, '0'+flags)
	for _, m := range melds {
		buf = append(buf, m.Kind[0])
		if m.GangKind != "" {
			buf = append(buf, m.GangKind[0])
		}
		for _, t := range m.Tiles {
			buf = append(buf, byte('A'+t.Index()))
		}
		if m.Concealed {
			buf = append(buf, '!')
		}
	}
	return string(buf)
}

func (a *Analyzer) cacheGet(working Hand27, melds []Meld, winningTile Tile, selfDraw bool, hu HuTypes) (*WinAnalysis, bool) {
	if a.cache == nil {
		return nil, false
	}
	v, ok := a.cache.Get(analyzeCacheKey(working, melds, winningTile, selfDraw, hu))
	if !ok {
		return nil, false
	}
	cached, ok := v.(*WinAnalysis)
	if !ok {
		return nil, false
	}
	return cached, true
}

func (a *Analyzer) cacheSet(working Hand27, melds []Meld, winningTile Tile, selfDraw bool, hu HuTypes, result *WinAnalysis) {
	if a.cache == nil {
		return
	}
	a.cache.Set(analyzeCacheKey(working, melds, winningTile, selfDraw, hu), result, 1)
}
