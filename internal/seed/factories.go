// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"aimarket/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers    int
	NumProjects int
	NumDemands  int
	NumTools    int
	ShouldClean bool
	// SkipBcrypt stores the plain password, useful when seeding thousands
	// of users locally.
	SkipBcrypt bool
}

var (
	departmentNames = []string{
		"技术部", "产品部", "设计部", "市场部", "运营部",
		"人力资源部", "财务部", "客服部", "供应链部", "法务部",
	}

	positions = []string{
		"算法工程师", "后端工程师", "前端工程师", "产品经理", "数据分析师",
		"运营专员", "设计师", "测试工程师", "项目经理",
	}

	projectCategories = []string{
		"效率工具", "数据分析", "智能客服", "流程自动化", "内容生成",
	}

	projectTitles = []string{
		"智能客服机器人", "合同审查助手", "销售预测模型", "智能排班系统",
		"会议纪要自动生成", "简历初筛助手", "工单智能分类", "报表自动化平台",
		"知识库问答系统", "舆情监控面板", "图片素材生成器", "代码评审助手",
	}

	demandTitles = []string{
		"需要一个周报自动汇总工具", "希望有客服话术推荐系统", "想要自动化的发票识别",
		"需要竞品价格监控", "希望自动生成培训课件", "需要智能会议室预定",
	}

	toolNames = []string{
		"文档翻译助手", "SQL 生成器", "海报设计工具", "语音转写服务",
		"数据脱敏工具", "API 调试台", "日程规划助手",
	}
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rnd  *rand.Rand
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (f *Factory) pick(values []string) string {
	return values[f.rnd.Intn(len(values))]
}

// pastTime returns a timestamp spread over the last maxDays days so lists
// don't look like everything was created in the same second.
func (f *Factory) pastTime(maxDays int) time.Time {
	if maxDays <= 0 {
		maxDays = 90
	}
	return time.Now().
		Add(-time.Duration(f.rnd.Intn(maxDays)) * 24 * time.Hour).
		Add(-time.Duration(f.rnd.Intn(24)) * time.Hour).
		Add(-time.Duration(f.rnd.Intn(60)) * time.Minute)
}

// CreateDepartments persists the built-in department list, skipping ones
// that already exist.
func (f *Factory) CreateDepartments() ([]*models.Department, error) {
	departments := make([]*models.Department, 0, len(departmentNames))
	for _, name := range departmentNames {
		dept := &models.Department{Name: name}
		if err := f.db.Where("name = ?", name).FirstOrCreate(dept).Error; err != nil {
			return nil, fmt.Errorf("create department %q: %w", name, err)
		}
		departments = append(departments, dept)
	}
	return departments, nil
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(dept *models.Department, overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Email:     gofakeit.Email(),
		Name:      gofakeit.Name(),
		Avatar:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Position:  f.pick(positions),
		Role:      models.RoleUser,
		Status:    models.UserStatusActive,
		Level:     1,
		LevelName: "新手",
		Points:    f.rnd.Intn(800),
	}
	if dept != nil {
		user.Department = dept.Name
		user.DepartmentID = &dept.ID
	}

	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashed)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// CreateProject persists a sample project with its impact row.
func (f *Factory) CreateProject(lead *models.User, overrides ...func(*models.Project)) (*models.Project, error) {
	title := fmt.Sprintf("%s %d", f.pick(projectTitles), f.rnd.Intn(900)+100)
	project := &models.Project{
		Title:            title,
		ShortDescription: gofakeit.Sentence(8),
		Background:       gofakeit.Paragraph(1, 3, 8, "\n"),
		Solution:         gofakeit.Paragraph(1, 2, 10, "\n"),
		Category:         f.pick(projectCategories),
		Status:           models.ProjectStatusDeliveredLive,
		ReviewStatus:     models.ReviewStatusApproved,
		RequesterID:      lead.ID,
		RequesterName:    lead.Name,
		ProjectLeadID:    lead.ID,
		DepartmentID:     derefDeptID(lead),
		Image:            fmt.Sprintf("https://picsum.photos/seed/%s/800/450", gofakeit.UUID()),
		Views:            f.rnd.Intn(500),
		CreatedAt:        f.pastTime(120),
	}

	for _, override := range overrides {
		override(project)
	}

	if err := f.db.Create(project).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	impact := &models.ProjectImpact{
		ProjectID:    project.ID,
		Efficiency:   fmt.Sprintf("节省 %d 人时/周", f.rnd.Intn(40)+5),
		CostSaving:   fmt.Sprintf("年节约成本约 %d 万元", f.rnd.Intn(50)+1),
		Satisfaction: fmt.Sprintf("%d%%", f.rnd.Intn(20)+80),
	}
	if err := f.db.Create(impact).Error; err != nil {
		return nil, fmt.Errorf("create project impact: %w", err)
	}
	project.Impact = impact
	return project, nil
}

// CreateDemand persists a sample demand for the given publisher.
func (f *Factory) CreateDemand(publisher *models.User, overrides ...func(*models.Demand)) (*models.Demand, error) {
	demand := &models.Demand{
		Title:        f.pick(demandTitles),
		Description:  gofakeit.Paragraph(1, 2, 10, "\n"),
		Category:     f.pick(projectCategories),
		ExpectedTime: fmt.Sprintf("%d 周内", f.rnd.Intn(8)+1),
		Reward:       float64(f.rnd.Intn(20)) * 100,
		Status:       models.DemandStatusActive,
		PublisherID:  publisher.ID,
		DepartmentID: publisher.DepartmentID,
		CreatedAt:    f.pastTime(60),
	}

	for _, override := range overrides {
		override(demand)
	}

	if err := f.db.Create(demand).Error; err != nil {
		return nil, fmt.Errorf("create demand: %w", err)
	}
	return demand, nil
}

// CreateTool persists a sample approved tool for the given author.
func (f *Factory) CreateTool(author *models.User, overrides ...func(*models.Tool)) (*models.Tool, error) {
	tool := &models.Tool{
		Name:         fmt.Sprintf("%s %d", f.pick(toolNames), f.rnd.Intn(90)+10),
		Description:  gofakeit.Paragraph(1, 2, 8, "\n"),
		Category:     f.pick(projectCategories),
		Type:         models.ToolTypeInternal,
		Status:       models.ToolStatusApproved,
		Icon:         fmt.Sprintf("https://picsum.photos/seed/icon-%s/128/128", gofakeit.UUID()),
		URL:          gofakeit.URL(),
		AuthorID:     author.ID,
		DepartmentID: derefDeptID(author),
		CreatedAt:    f.pastTime(90),
	}

	for _, override := range overrides {
		override(tool)
	}

	if err := f.db.Create(tool).Error; err != nil {
		return nil, fmt.Errorf("create tool: %w", err)
	}
	return tool, nil
}

// CreateReplication persists a sample deployment application.
func (f *Factory) CreateReplication(project *models.Project, applicant *models.User) (*models.ProjectReplication, error) {
	urgencies := []string{models.UrgencyNormal, models.UrgencyUrgent, models.UrgencyEmergency}
	replication := &models.ProjectReplication{
		ProjectID:        project.ID,
		ReplicatorID:     applicant.ID,
		ApplicantName:    applicant.Name,
		Department:       applicant.Department,
		DepartmentID:     derefDeptID(applicant),
		Urgency:          f.pick(urgencies),
		BusinessScenario: gofakeit.Paragraph(1, 2, 8, "\n"),
		ExpectedGoals:    gofakeit.Sentence(12),
		TeamSize:         fmt.Sprintf("%d 人", f.rnd.Intn(20)+2),
		Status:           models.ReplicationStatusApplied,
	}
	if err := f.db.Create(replication).Error; err != nil {
		return nil, fmt.Errorf("create replication: %w", err)
	}
	return replication, nil
}

func derefDeptID(user *models.User) uint {
	if user.DepartmentID != nil {
		return *user.DepartmentID
	}
	return 0
}
