package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
    RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
        Namespace: "vendor_pulse",
        Name:      "runs_total",
        Help:      "Report runs by outcome",
    }, []string{"outcome"})

    IssuesFetched = prometheus.NewCounter(prometheus.CounterOpts{
        Namespace: "vendor_pulse",
        Name:      "issues_fetched_total",
        Help:      "Issues fetched from the upstream tracker",
    })

    PagesFetched = prometheus.NewCounter(prometheus.CounterOpts{
        Namespace: "vendor_pulse",
        Name:      "issue_pages_fetched_total",
        Help:      "Issue pages fetched from the upstream tracker",
    })

    UploadFailures = prometheus.NewCounter(prometheus.CounterOpts{
        Namespace: "vendor_pulse",
        Name:      "upload_failures_total",
        Help:      "Failed report deliveries to the messaging channel",
    })
)

func init() {
    prometheus.MustRegister(RunsTotal, IssuesFetched, PagesFetched, UploadFailures)
}
