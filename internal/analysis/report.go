// Package analysis produces heuristic review reports for deployment requests.
//
// The report is assembled from keyword heuristics over the submitted form
// fields. It stands in for a call to an external language-model API and is
// deterministic given the same input and clock.
package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"

	"aimarket/internal/models"
)

// Request carries the form fields a report is generated from.
type Request struct {
	ProjectTitle     string
	BusinessScenario string
	ExpectedGoals    string
	AdditionalNeeds  string
	Urgency          string
	BudgetRange      string
	TeamSize         string
	TargetLaunchDate string
}

// launchDateLayout matches the date format submitted by the application form.
const launchDateLayout = "2006-01-02"

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Generate renders the Markdown analysis report. The clock is injected so
// callers and tests control the timestamp and launch-date arithmetic.
func Generate(req Request, now time.Time) string {
	var b strings.Builder

	b.WriteString("# 申请分析报告\n\n")
	fmt.Fprintf(&b, "**分析时间**：%s\n\n", now.Format("2006/01/02 15:04:05"))

	b.WriteString("## 1. 业务场景分析\n\n")
	fmt.Fprintf(&b, "申请人希望将\"%s\"项目应用到其业务场景中。", req.ProjectTitle)

	if containsAny(req.BusinessScenario, "效率", "提升", "优化") {
		b.WriteString("重点关注**效率提升和流程优化**，希望通过自动化手段减少人工操作。")
	}
	if containsAny(req.BusinessScenario, "成本", "节约", "节省") {
		b.WriteString("关注**成本控制和资源节约**，希望通过技术手段降低运营成本。")
	}
	if containsAny(req.BusinessScenario, "自动化", "智能", "AI") {
		b.WriteString("希望通过**智能化和自动化**手段解决问题，提升业务处理能力。")
	}
	if containsAny(req.BusinessScenario, "数据", "分析", "报表") {
		b.WriteString("需要**数据分析和报表功能**，希望通过数据驱动决策。")
	}

	b.WriteString("\n\n## 2. 预期目标评估\n\n")
	if req.ExpectedGoals != "" {
		fmt.Fprintf(&b, "申请人明确提出了以下目标：\n- %s\n\n", req.ExpectedGoals)
		if containsAny(req.ExpectedGoals, "%", "提升", "降低") {
			b.WriteString("目标**量化明确**，便于后续评估项目效果。")
		} else {
			b.WriteString("建议与申请人进一步沟通，将目标**量化**，以便更好地评估项目效果。")
		}
	} else {
		b.WriteString("申请人**未明确说明具体目标**，建议在审批前与申请人沟通，明确预期效果和成功标准。\n\n")
	}

	b.WriteString("\n## 3. 紧急程度评估\n\n")
	switch req.Urgency {
	case models.UrgencyEmergency:
		b.WriteString("⚠️ **紧急程度：高**\n- 建议**优先处理**此申请\n- 可能需要加急审批流程\n- 建议尽快与申请人沟通确认具体时间安排\n\n")
	case models.UrgencyUrgent:
		b.WriteString("⚠️ **紧急程度：中等**\n- 建议在**近期内处理**\n- 可以按照正常流程审批，但需要关注时间节点\n\n")
	default:
		b.WriteString("✅ **紧急程度：普通**\n- 可以按照**正常流程**处理\n- 有充足的时间进行审批和准备\n\n")
	}

	b.WriteString("## 4. 资源需求评估\n\n")
	if req.BudgetRange != "" {
		fmt.Fprintf(&b, "💰 **预算范围**：%s\n", req.BudgetRange)
		b.WriteString("- 预算已明确，便于资源规划\n")
	} else {
		b.WriteString("💰 **预算范围**：未指定\n")
		b.WriteString("- ⚠️ 建议与申请人确认预算范围，以便合理规划资源\n")
	}

	if req.TeamSize != "" {
		fmt.Fprintf(&b, "\n👥 **团队规模**：%s\n", req.TeamSize)
	}

	if req.TargetLaunchDate != "" {
		fmt.Fprintf(&b, "\n📅 **目标上线日期**：%s\n", req.TargetLaunchDate)
		if target, err := time.ParseInLocation(launchDateLayout, req.TargetLaunchDate, now.Location()); err == nil {
			days := int(math.Ceil(target.Sub(now).Hours() / 24))
			switch {
			case days < 30:
				fmt.Fprintf(&b, "- ⚠️ 时间较为紧张（%d天），需要评估是否能够按时完成\n", days)
			case days < 90:
				fmt.Fprintf(&b, "- ✅ 时间安排合理（%d天），有充足时间进行准备和实施\n", days)
			default:
				fmt.Fprintf(&b, "- ✅ 时间充裕（%d天），可以充分规划和准备\n", days)
			}
		}
	}

	b.WriteString("\n## 5. 建议和注意事项\n\n")
	if containsAny(req.AdditionalNeeds, "培训", "学习") {
		b.WriteString("📚 **培训需求**：申请人需要培训支持\n")
		b.WriteString("- 建议准备培训材料和培训计划\n")
		b.WriteString("- 可以考虑安排项目负责人进行培训\n\n")
	}
	if containsAny(req.AdditionalNeeds, "定制", "个性化", "修改") {
		b.WriteString("🔧 **定制化需求**：需要定制化开发\n")
		b.WriteString("- 需要评估定制化的工作量和成本\n")
		b.WriteString("- 建议与项目负责人沟通定制化方案\n\n")
	}
	if containsAny(req.AdditionalNeeds, "数据", "迁移", "导入") {
		b.WriteString("💾 **数据迁移需求**：需要数据迁移支持\n")
		b.WriteString("- 需要评估数据迁移的复杂度和风险\n")
		b.WriteString("- 建议制定详细的数据迁移计划\n\n")
	}
	if strings.TrimSpace(req.AdditionalNeeds) == "" {
		b.WriteString("✅ 申请人未提出特殊需求，可以按照标准流程进行部署\n\n")
	}

	b.WriteString("## 6. 综合建议\n\n")
	if req.Urgency == models.UrgencyEmergency || req.Urgency == models.UrgencyUrgent {
		b.WriteString("1. **优先处理**：由于紧急程度较高，建议尽快安排审批和部署\n")
	}
	if strings.TrimSpace(req.ExpectedGoals) == "" {
		b.WriteString("2. **明确目标**：建议与申请人沟通，明确具体的预期目标和成功标准\n")
	}
	if req.BudgetRange == "" {
		b.WriteString("3. **确认预算**：建议确认预算范围，以便合理规划资源\n")
	}
	b.WriteString("4. **沟通协调**：建议与项目负责人和申请人建立沟通渠道，确保部署顺利进行\n")
	b.WriteString("5. **进度跟踪**：建议建立进度跟踪机制，确保按时完成部署\n")

	return b.String()
}
