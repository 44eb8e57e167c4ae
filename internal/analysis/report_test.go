package analysis

import (
	"strings"
	"testing"
	"time"

	"aimarket/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportClock = time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

func TestGenerateDeterministic(t *testing.T) {
	t.Parallel()
	req := Request{
		ProjectTitle:     "智能客服",
		BusinessScenario: "提升效率",
		Urgency:          models.UrgencyNormal,
	}
	first := Generate(req, reportClock)
	second := Generate(req, reportClock)
	assert.Equal(t, first, second)
	assert.Contains(t, first, "**分析时间**：2025/03/01 10:30:00")
}

func TestGenerateScenarioKeywords(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		scenario string
		want     string
	}{
		{"Efficiency", "希望优化审批流程", "效率提升和流程优化"},
		{"Cost", "节约人力成本", "成本控制和资源节约"},
		{"Automation", "引入AI能力", "智能化和自动化"},
		{"Data", "生成月度报表", "数据分析和报表功能"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Generate(Request{ProjectTitle: "工单助手", BusinessScenario: tt.scenario}, reportClock)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestGenerateScenarioMultipleKeywords(t *testing.T) {
	t.Parallel()
	out := Generate(Request{
		ProjectTitle:     "数据中台",
		BusinessScenario: "通过自动化提升效率并节省成本",
	}, reportClock)
	assert.Contains(t, out, "效率提升和流程优化")
	assert.Contains(t, out, "成本控制和资源节约")
	assert.Contains(t, out, "智能化和自动化")
}

func TestGenerateGoals(t *testing.T) {
	t.Parallel()

	t.Run("Quantified", func(t *testing.T) {
		out := Generate(Request{ProjectTitle: "p", ExpectedGoals: "处理时长降低30%"}, reportClock)
		assert.Contains(t, out, "目标**量化明确**")
	})

	t.Run("Vague", func(t *testing.T) {
		out := Generate(Request{ProjectTitle: "p", ExpectedGoals: "让大家用起来更顺手"}, reportClock)
		assert.Contains(t, out, "将目标**量化**")
	})

	t.Run("Missing", func(t *testing.T) {
		out := Generate(Request{ProjectTitle: "p"}, reportClock)
		assert.Contains(t, out, "申请人**未明确说明具体目标**")
		assert.Contains(t, out, "2. **明确目标**")
	})
}

func TestGenerateUrgency(t *testing.T) {
	t.Parallel()

	t.Run("Emergency", func(t *testing.T) {
		out := Generate(Request{ProjectTitle: "p", Urgency: models.UrgencyEmergency}, reportClock)
		assert.Contains(t, out, "**紧急程度：高**")
		assert.Contains(t, out, "建议**优先处理**此申请")
		assert.Contains(t, out, "1. **优先处理**")
	})

	t.Run("Urgent", func(t *testing.T) {
		out := Generate(Request{ProjectTitle: "p", Urgency: models.UrgencyUrgent}, reportClock)
		assert.Contains(t, out, "**紧急程度：中等**")
		assert.Contains(t, out, "1. **优先处理**")
	})

	t.Run("Normal", func(t *testing.T) {
		out := Generate(Request{ProjectTitle: "p", Urgency: models.UrgencyNormal}, reportClock)
		assert.Contains(t, out, "**紧急程度：普通**")
		assert.NotContains(t, out, "1. **优先处理**")
	})
}

func TestGenerateLaunchDateBuckets(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		date string
		want string
	}{
		{"Tight", "2025-03-15", "时间较为紧张（14天）"},
		{"Reasonable", "2025-04-30", "时间安排合理（60天）"},
		{"Ample", "2025-09-01", "时间充裕（184天）"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Generate(Request{ProjectTitle: "p", TargetLaunchDate: tt.date}, reportClock)
			assert.Contains(t, out, "📅 **目标上线日期**："+tt.date)
			assert.Contains(t, out, tt.want)
		})
	}

	t.Run("Unparseable", func(t *testing.T) {
		out := Generate(Request{ProjectTitle: "p", TargetLaunchDate: "下个季度"}, reportClock)
		assert.Contains(t, out, "📅 **目标上线日期**：下个季度")
		assert.NotContains(t, out, "天）")
	})
}

func TestGenerateNeeds(t *testing.T) {
	t.Parallel()

	t.Run("Training", func(t *testing.T) {
		out := Generate(Request{ProjectTitle: "p", AdditionalNeeds: "需要培训新同事"}, reportClock)
		assert.Contains(t, out, "📚 **培训需求**")
	})

	t.Run("Customization", func(t *testing.T) {
		out := Generate(Request{ProjectTitle: "p", AdditionalNeeds: "界面需要定制"}, reportClock)
		assert.Contains(t, out, "🔧 **定制化需求**")
	})

	t.Run("Migration", func(t *testing.T) {
		out := Generate(Request{ProjectTitle: "p", AdditionalNeeds: "历史数据迁移"}, reportClock)
		assert.Contains(t, out, "💾 **数据迁移需求**")
	})

	t.Run("None", func(t *testing.T) {
		out := Generate(Request{ProjectTitle: "p", AdditionalNeeds: "  "}, reportClock)
		assert.Contains(t, out, "申请人未提出特殊需求")
	})
}

func TestGenerateBudget(t *testing.T) {
	t.Parallel()

	withBudget := Generate(Request{ProjectTitle: "p", BudgetRange: "10-20万"}, reportClock)
	assert.Contains(t, withBudget, "💰 **预算范围**：10-20万")
	assert.NotContains(t, withBudget, "3. **确认预算**")

	withoutBudget := Generate(Request{ProjectTitle: "p"}, reportClock)
	assert.Contains(t, withoutBudget, "💰 **预算范围**：未指定")
	assert.Contains(t, withoutBudget, "3. **确认预算**")
}

func TestGenerateSectionOrder(t *testing.T) {
	t.Parallel()
	out := Generate(Request{ProjectTitle: "p", TeamSize: "5-10人"}, reportClock)

	sections := []string{
		"# 申请分析报告",
		"## 1. 业务场景分析",
		"## 2. 预期目标评估",
		"## 3. 紧急程度评估",
		"## 4. 资源需求评估",
		"## 5. 建议和注意事项",
		"## 6. 综合建议",
	}
	last := -1
	for _, s := range sections {
		idx := strings.Index(out, s)
		require.GreaterOrEqual(t, idx, 0, s)
		assert.Greater(t, idx, last)
		last = idx
	}
	assert.Contains(t, out, "👥 **团队规模**：5-10人")
}
