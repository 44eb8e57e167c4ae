package seed

import (
	"fmt"
	"log"

	"aimarket/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Seed populates the database with demo data: departments, users, projects,
// demands, tools and a layer of engagement (likes, follows, reviews,
// replication applications).
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Seeding %d users, %d projects, %d demands, %d tools...",
		opts.NumUsers, opts.NumProjects, opts.NumDemands, opts.NumTools)

	if opts.ShouldClean {
		if err := ClearAll(db); err != nil {
			return fmt.Errorf("clean database: %w", err)
		}
	}

	f := NewFactory(db, opts)

	departments, err := f.CreateDepartments()
	if err != nil {
		return err
	}
	log.Printf("✓ %d departments available", len(departments))

	users, err := seedUsers(f, departments, opts.NumUsers)
	if err != nil {
		return err
	}
	log.Printf("✓ %d users created (password: password123)", len(users))

	projects, err := seedProjects(f, users, opts.NumProjects)
	if err != nil {
		return err
	}
	log.Printf("✓ %d projects created", len(projects))

	demands, err := seedDemands(f, users, opts.NumDemands)
	if err != nil {
		return err
	}
	log.Printf("✓ %d demands created", len(demands))

	tools, err := seedTools(f, users, opts.NumTools)
	if err != nil {
		return err
	}
	log.Printf("✓ %d tools created", len(tools))

	if err := seedEngagement(f, users, projects, demands, tools); err != nil {
		return err
	}
	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

func seedUsers(f *Factory, departments []*models.Department, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count+1)

	// One well-known admin account for local development.
	admin, err := f.CreateUser(departments[0], func(u *models.User) {
		u.Email = "admin@aimarket.local"
		u.Name = "平台管理员"
		u.Role = models.RoleAdmin
	})
	if err != nil {
		return nil, err
	}
	users = append(users, admin)

	for i := 0; i < count; i++ {
		dept := departments[f.rnd.Intn(len(departments))]
		user, err := f.CreateUser(dept)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func seedProjects(f *Factory, users []*models.User, count int) ([]*models.Project, error) {
	projects := make([]*models.Project, 0, count)
	for i := 0; i < count; i++ {
		lead := users[f.rnd.Intn(len(users))]
		project, err := f.CreateProject(lead)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, nil
}

func seedDemands(f *Factory, users []*models.User, count int) ([]*models.Demand, error) {
	demands := make([]*models.Demand, 0, count)
	for i := 0; i < count; i++ {
		publisher := users[f.rnd.Intn(len(users))]
		demand, err := f.CreateDemand(publisher)
		if err != nil {
			return nil, err
		}
		demands = append(demands, demand)
	}
	return demands, nil
}

func seedTools(f *Factory, users []*models.User, count int) ([]*models.Tool, error) {
	tools := make([]*models.Tool, 0, count)
	for i := 0; i < count; i++ {
		author := users[f.rnd.Intn(len(users))]
		tool, err := f.CreateTool(author)
		if err != nil {
			return nil, err
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

// seedEngagement layers likes, follows, proposals, reviews and replication
// applications over the seeded entities so lists and counters have data.
func seedEngagement(f *Factory, users []*models.User, projects []*models.Project, demands []*models.Demand, tools []*models.Tool) error {
	likes, follows, proposals, reviews, replications := 0, 0, 0, 0, 0

	for _, project := range projects {
		for _, user := range users {
			if f.rnd.Intn(100) < 30 {
				like := &models.ProjectLike{ProjectID: project.ID, UserID: user.ID}
				if err := f.db.Create(like).Error; err != nil {
					return fmt.Errorf("create project like: %w", err)
				}
				likes++
			}
		}
		// About one project in four gets a deployment application.
		if f.rnd.Intn(4) == 0 {
			applicant := users[f.rnd.Intn(len(users))]
			if _, err := f.CreateReplication(project, applicant); err != nil {
				return err
			}
			replications++
		}
	}

	for _, demand := range demands {
		for _, user := range users {
			if user.ID == demand.PublisherID {
				continue
			}
			if f.rnd.Intn(100) < 20 {
				follow := &models.DemandFollower{DemandID: demand.ID, UserID: user.ID}
				if err := f.db.Create(follow).Error; err != nil {
					return fmt.Errorf("create demand follower: %w", err)
				}
				follows++
			}
			if f.rnd.Intn(100) < 10 {
				proposal := &models.DemandProposal{
					DemandID:   demand.ID,
					ProposerID: user.ID,
					Content:    gofakeit.Paragraph(1, 2, 8, "\n"),
				}
				if err := f.db.Create(proposal).Error; err != nil {
					return fmt.Errorf("create demand proposal: %w", err)
				}
				proposals++
			}
		}
	}

	for _, tool := range tools {
		for _, user := range users {
			if f.rnd.Intn(100) < 15 {
				review := &models.ToolReview{
					ToolID:  tool.ID,
					UserID:  user.ID,
					Rating:  f.rnd.Intn(3) + 3,
					Comment: gofakeit.Sentence(10),
				}
				if err := f.db.Create(review).Error; err != nil {
					return fmt.Errorf("create tool review: %w", err)
				}
				reviews++
			}
		}
	}

	log.Printf("✓ engagement: %d likes, %d follows, %d proposals, %d reviews, %d replications",
		likes, follows, proposals, reviews, replications)
	return nil
}

// ClearAll removes all seeded data in dependency order.
func ClearAll(db *gorm.DB) error {
	log.Println("🧹 Clearing existing data...")
	tables := []interface{}{
		&models.Notification{},
		&models.ToolReview{},
		&models.Tool{},
		&models.DemandProposal{},
		&models.DemandFollower{},
		&models.Demand{},
		&models.ProjectReplication{},
		&models.ProjectLike{},
		&models.ProjectDeveloper{},
		&models.ProjectImpact{},
		&models.Project{},
		&models.User{},
		&models.Department{},
	}
	for _, table := range tables {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}
