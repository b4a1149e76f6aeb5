package intent

import (
	"testing"

	"github.com/hsinyulin/finchat/internal/models"
)

func TestClassifyRuleTable(t *testing.T) {
	c := NewClassifier(Config{})

	cases := []struct {
		msg   string
		skill models.SkillID
		arg   string
	}{
		// Lottery keywords match anywhere and outrank the token rules even
		// when the message also contains a code-shaped token.
		{"威力彩開獎", models.SkillLottery, "威力彩開獎"},
		{"今彩539 中獎號碼 1234", models.SkillLottery, "今彩539 中獎號碼 1234"},
		{"大盤走勢", models.SkillStock, "大盤"},
		{"台股今天如何", models.SkillStock, "大盤"},
		{"美盤", models.SkillStock, "美盤"},
		{"美股分析", models.SkillStock, "美盤"},
		{"金價多少", models.SkillGold, "金價多少"},
		{"黃金還能買嗎", models.SkillGold, "黃金還能買嗎"},
		{"鉑金價格", models.SkillPlatinum, "鉑金價格"},
		{"日幣匯率", models.SkillCurrency, "JPY"},
		{"美金現在多少", models.SkillCurrency, "USD"},
		{"104:後端工程師", models.SkillJobSearch, "後端工程師"},
		{"pt:家教", models.SkillParttimeJob, "家教"},
		{"cb: ethereum", models.SkillCrypto, "ethereum"},
		{"$:solana", models.SkillCrypto, "solana"},
		{"2330", models.SkillStock, "2330"},
		{"請分析 2330 的走勢", models.SkillStock, "2330"},
		{"00632R", models.SkillStock, "00632R"},
		{"AAPL", models.SkillStock, "AAPL"},
		{"比特幣", models.SkillCrypto, "bitcoin"},
		{"狗狗幣漲了嗎", models.SkillCrypto, "dogecoin"},
		{"老婆在嗎", models.SkillCompanion, CompanionArg},
		{"今天天氣如何", models.SkillLLMChat, ""},
		{"", models.SkillLLMChat, ""},
	}

	for _, tc := range cases {
		skill, arg := c.Classify(tc.msg)
		if skill != tc.skill || arg != tc.arg {
			t.Errorf("Classify(%q) = (%s, %q), want (%s, %q)", tc.msg, skill, arg, tc.skill, tc.arg)
		}
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewClassifier(Config{})
	for i := 0; i < 3; i++ {
		skill, arg := c.Classify("104:資料工程師")
		if skill != models.SkillJobSearch || arg != "資料工程師" {
			t.Fatalf("iteration %d: got (%s, %q)", i, skill, arg)
		}
	}
}

func TestClassifyTokenFalsePositive(t *testing.T) {
	// A short English word in casual chat is misrouted to the stock lookup.
	// This mirrors the loose default behavior on purpose.
	c := NewClassifier(Config{})
	skill, arg := c.Classify("ok")
	if skill != models.SkillStock || arg != "ok" {
		t.Fatalf("Classify(\"ok\") = (%s, %q), want loose stock match", skill, arg)
	}
}

func TestClassifyStrictStockMatching(t *testing.T) {
	c := NewClassifier(Config{StrictStockMatching: true})

	if skill, _ := c.Classify("ok"); skill != models.SkillLLMChat {
		t.Errorf("strict mode should not route bare letter tokens, got %s", skill)
	}
	if skill, _ := c.Classify("2330"); skill != models.SkillLLMChat {
		t.Errorf("strict mode should not route bare digit tokens, got %s", skill)
	}
	// Explicit prefixes are unaffected by strict mode.
	if skill, arg := c.Classify("台股"); skill != models.SkillStock || arg != "大盤" {
		t.Errorf("strict mode broke prefix rules: (%s, %q)", skill, arg)
	}
	// The crypto shorthand rules below the token rules still apply.
	if skill, arg := c.Classify("比特幣"); skill != models.SkillCrypto || arg != "bitcoin" {
		t.Errorf("strict mode broke crypto shorthand: (%s, %q)", skill, arg)
	}
}

func TestClassifyPriorityOverlap(t *testing.T) {
	// "台股2330" satisfies both the prefix rule and the digit token rule;
	// the prefix rule is evaluated first and must win.
	c := NewClassifier(Config{})
	skill, arg := c.Classify("台股2330")
	if skill != models.SkillStock || arg != "大盤" {
		t.Fatalf("prefix rule should outrank token rule, got (%s, %q)", skill, arg)
	}
}
