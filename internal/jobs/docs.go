// Package jobs provides the scheduled background tasks of the dispatch
// service, built on github.com/robfig/cron/v3.
//
// The only job is the offer sweep: every few seconds it expires stale offer
// rounds and pushes fresh offers for ready orders to eligible agents. The
// cadence is a tradeoff between dispatch latency and database load; the
// sweep reads the full ready-order and available-agent pools on every run.
//
// Jobs are managed through JobManager:
//
//	manager := jobs.NewJobManager(offerOrdersHandler, logger)
//	if err := manager.StartAll(); err != nil {
//		log.Fatal(err)
//	}
//	defer manager.StopAll()
package jobs
