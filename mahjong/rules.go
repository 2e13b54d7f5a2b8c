package mahjong

import "fmt"

// HuTypes 计番项开关，关闭的项不参与加番
type HuTypes struct {
	SelfDraw         bool `json:"selfDraw"`
	SevenPairs       bool `json:"sevenPairs"`
	AllSameSuit      bool `json:"allSameSuit"`
	MixedOneSuit     bool `json:"mixedOneSuit"`
	AllTerminals     bool `json:"allTerminals"`
	TerminalEverySet bool `json:"terminalEverySet"`
	NoTerminals      bool `json:"noTerminals"`
	AllPungs         bool `json:"allPungs"`
	AllConcealed     bool `json:"allConcealed"`
	PairWait         bool `json:"pairWait"`
	EdgeWait         bool `json:"edgeWait"`
	ConcealedPungs   bool `json:"concealedPungs"`
	ConcealedGangs   bool `json:"concealedGangs"`
}

// ScoreConfig 结算参数
type ScoreConfig struct {
	BaseScore     int64   `json:"baseScore"`
	DealerMult    float64 `json:"dealerMult"`
	SelfDrawBonus float64 `json:"selfDrawBonus"`
	GangBonus     int64   `json:"gangBonus"`
	MaxScore      int64   `json:"maxScore"`
	MultiWinner   bool    `json:"multiWinner"`
}

// TurnConfig 出牌与响应时限
type TurnConfig struct {
	TurnSeconds         int  `json:"turnSeconds"`
	ActionSeconds       int  `json:"actionSeconds"`
	AutoTrustee         bool `json:"autoTrustee"`
	TrusteeTimeoutCount int  `json:"trusteeTimeoutCount"`
	GraceSeconds        int  `json:"graceSeconds"`
}

// PlayerLimit 固定三人局
const PlayerLimit = 3

// Config 房间规则，建房时校验后不再变更
type Config struct {
	Players        int         `json:"players"`
	Tiles          TileMode    `json:"tiles"`
	AllowPeng      bool        `json:"allowPeng"`
	AllowGang      bool        `json:"allowGang"`
	AllowChi       bool        `json:"allowChi"`
	Hu             HuTypes     `json:"huTypes"`
	Score          ScoreConfig `json:"score"`
	Turn           TurnConfig  `json:"turn"`
	DealerRotation bool        `json:"dealerRotation"`
	DismissVotes   int         `json:"dismissVotes"`
}

// DefaultConfig 三人整副牌局的默认规则，不开吃
func DefaultConfig() Config {
	return Config{
		Players:   PlayerLimit,
		Tiles:     AllSuits,
		AllowPeng: true,
		AllowGang: true,
		AllowChi:  false,
		Hu: HuTypes{
			SelfDraw:       true,
			SevenPairs:     true,
			AllSameSuit:    true,
			NoTerminals:    true,
			AllPungs:       true,
			AllConcealed:   true,
			PairWait:       true,
			EdgeWait:       true,
			ConcealedPungs: true,
			ConcealedGangs: true,
		},
		Score: ScoreConfig{
			BaseScore:     1,
			DealerMult:    2.0,
			SelfDrawBonus: 0.5,
			GangBonus:     1,
			MaxScore:      200,
			MultiWinner:   true,
		},
		Turn: TurnConfig{
			TurnSeconds:         30,
			ActionSeconds:       10,
			AutoTrustee:         true,
			TrusteeTimeoutCount: 3,
			GraceSeconds:        30,
		},
		DealerRotation: true,
		DismissVotes:   2,
	}
}

// Validate 建房时校验规则合法性
func (c *Config) Validate() error {
	if c.Players != PlayerLimit {
		return fmt.Errorf("仅支持 %d 人局, 给定 %d", PlayerLimit, c.Players)
	}
	if c.Tiles != WanOnly && c.Tiles != AllSuits {
		return fmt.Errorf("非法牌池模式: %q", c.Tiles)
	}
	if c.Tiles == WanOnly {
		// 单花色下混一色无意义，直接关掉
		c.Hu.MixedOneSuit = false
	}
	// 36 张的单花色牌池发不满三家 13 张，只能用于规则评估
	if c.Tiles.DeckSize() < PlayerLimit*13+1 {
		return fmt.Errorf("牌池 %d 张不足以完成发牌", c.Tiles.DeckSize())
	}
	if c.Score.BaseScore <= 0 {
		return fmt.Errorf("底分必须为正: %d", c.Score.BaseScore)
	}
	if c.Score.DealerMult < 1 {
		return fmt.Errorf("庄家倍数不得小于 1: %v", c.Score.DealerMult)
	}
	if c.Score.MaxScore <= 0 {
		return fmt.Errorf("封顶分必须为正: %d", c.Score.MaxScore)
	}
	if c.Turn.TurnSeconds <= 0 || c.Turn.ActionSeconds <= 0 {
		return fmt.Errorf("时限必须为正: turn=%d action=%d", c.Turn.TurnSeconds, c.Turn.ActionSeconds)
	}
	if c.Turn.TrusteeTimeoutCount <= 0 {
		return fmt.Errorf("托管超时次数必须为正: %d", c.Turn.TrusteeTimeoutCount)
	}
	if c.DismissVotes <= 0 || c.DismissVotes > PlayerLimit {
		return fmt.Errorf("解散票数须在 1-%d: %d", PlayerLimit, c.DismissVotes)
	}
	return nil
}
