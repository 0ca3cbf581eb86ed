// Package scheduler запускает фоновое обновление курса USD:
// курс ЦБ подтягивается раз в час и записывается в локальную базу
// каждой компании.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"apartment-finder/internal/app/cbu"
	"apartment-finder/internal/app/ds"
	"apartment-finder/internal/app/repository"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type Scheduler struct {
	cron *cron.Cron
	repo *repository.Repository
	cbu  *cbu.Client
	open repository.StoreOpener
}

func NewScheduler(repo *repository.Repository, cbuClient *cbu.Client) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		repo: repo,
		cbu:  cbuClient,
		open: repository.OpenStores,
	}
}

func (s *Scheduler) Start() error {
	// Cron-задача: обновление курса USD во всех компаниях (ежечасно)
	_, err := s.cron.AddFunc("0 * * * *", s.refreshRates)
	if err != nil {
		return fmt.Errorf("failed to add rate refresh job: %w", err)
	}

	s.cron.Start()
	log.Info("cron scheduler started")

	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Info("cron scheduler stopped")
}

// refreshRates забирает курс ЦБ один раз и раскладывает его по
// локальным базам компаний. Недоступная база одной компании не
// останавливает обновление остальных.
func (s *Scheduler) refreshRates() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	rate, err := s.cbu.FetchUSDRate(ctx)
	if err != nil {
		log.Error("rate refresh: cant fetch cbu rate: ", err)
		return
	}
	fetchedAt := time.Now()

	companies, err := s.repo.Companies()
	if err != nil {
		log.Error("rate refresh: cant list companies: ", err)
		return
	}

	for i := range companies {
		s.storeRateForCompany(&companies[i], rate, fetchedAt)
	}

	log.Infof("rate refresh done: %.2f UZS for %d companies", rate, len(companies))
}

func (s *Scheduler) storeRateForCompany(company *ds.Company, rate float64, fetchedAt time.Time) {
	stores, err := s.open(company)
	if err != nil {
		log.Errorf("rate refresh: cant open stores for %s: %v", company.Subdomain, err)
		return
	}
	defer stores.Close()

	tenantRepo := repository.NewTenantRepository(stores.Local)
	if _, err := tenantRepo.StoreCbuRate(rate, fetchedAt); err != nil {
		log.Errorf("rate refresh: cant store rate for %s: %v", company.Subdomain, err)
	}
}
