package janitor

import "github.com/khaledhikmat/dfd-go/model"

// IService sweeps stale uploads on a schedule and delivers the stats of each
// run on the subscribed channel.
type IService interface {
	Subscribe() (<-chan model.SweepStats, error)
	Unsubscribe() error
	Finalize()
}
