package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// digestCronParser accepts the classic 5-field minute/hour/dom/month/dow
// syntax. Config validation and the scheduler must agree on it.
var digestCronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// DigestStats aggregates one week of shots.
type DigestStats struct {
	Shots     int
	AvgDose   float64
	AvgYield  float64
	AvgRatio  float64
	AvgTime   float64
	AvgSour   float64
	AvgBitter float64
	Best      ShotRecord
}

func computeDigestStats(shots []ShotRecord) DigestStats {
	stats := DigestStats{Shots: len(shots)}
	if len(shots) == 0 {
		return stats
	}

	best := shots[0]
	for _, s := range shots {
		stats.AvgDose += s.DoseGrams
		stats.AvgYield += s.YieldGrams
		stats.AvgRatio += s.Ratio()
		stats.AvgTime += float64(s.TimeSec)
		stats.AvgSour += float64(s.Flavor.Sourness)
		stats.AvgBitter += float64(s.Flavor.Bitterness)
		if s.Flavor.Overall > best.Flavor.Overall {
			best = s
		}
	}
	n := float64(len(shots))
	stats.AvgDose /= n
	stats.AvgYield /= n
	stats.AvgRatio /= n
	stats.AvgTime /= n
	stats.AvgSour /= n
	stats.AvgBitter /= n
	stats.Best = best
	return stats
}

// shotsBetween filters by creation time, from inclusive, to exclusive.
func shotsBetween(shots []ShotRecord, from, to time.Time) []ShotRecord {
	fromMs, toMs := from.UnixMilli(), to.UnixMilli()
	var out []ShotRecord
	for _, s := range shots {
		if s.CreatedAt >= fromMs && s.CreatedAt < toMs {
			out = append(out, s)
		}
	}
	return out
}

// beanCounts returns beans by shot count, most pulled first, ties by
// name so the digest is stable.
func beanCounts(shots []ShotRecord) []string {
	counts := make(map[string]int)
	for _, s := range shots {
		counts[s.Bean]++
	}
	beans := make([]string, 0, len(counts))
	for b := range counts {
		beans = append(beans, b)
	}
	sort.Slice(beans, func(i, j int) bool {
		if counts[beans[i]] != counts[beans[j]] {
			return counts[beans[i]] > counts[beans[j]]
		}
		return beans[i] < beans[j]
	})
	for i, b := range beans {
		beans[i] = fmt.Sprintf("%s (%d)", b, counts[b])
	}
	return beans
}

// BuildDigest renders the markdown digest for shots pulled in
// [from, to).
func BuildDigest(shots []ShotRecord, from, to time.Time) string {
	week := shotsBetween(shots, from, to)

	var b strings.Builder
	fmt.Fprintf(&b, "## Espresso week %s - %s\n\n",
		from.Format("Jan 2"), to.AddDate(0, 0, -1).Format("Jan 2, 2006"))

	if len(week) == 0 {
		b.WriteString("No shots logged this week.\n")
		return b.String()
	}

	stats := computeDigestStats(week)
	fmt.Fprintf(&b, "- Shots pulled: %d\n", stats.Shots)
	fmt.Fprintf(&b, "- Average dose %.1f g, yield %.1f g, ratio 1:%.1f\n",
		stats.AvgDose, stats.AvgYield, stats.AvgRatio)
	fmt.Fprintf(&b, "- Average extraction %.0f s\n", stats.AvgTime)
	fmt.Fprintf(&b, "- Best shot: %s, overall %d/5\n", stats.Best.Summary(), stats.Best.Flavor.Overall)
	fmt.Fprintf(&b, "- Flavor averages: sourness %.1f, bitterness %.1f\n", stats.AvgSour, stats.AvgBitter)
	fmt.Fprintf(&b, "- Beans: %s\n", strings.Join(beanCounts(week), ", "))
	return b.String()
}

// WriteDigestFile saves the digest under the output dir, named by the
// week's Monday.
func WriteDigestFile(content, outputDir string, weekStart time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create digest dir: %w", err)
	}
	path := filepath.Join(outputDir, fmt.Sprintf("digest_%s.md", weekStart.Format("20060102")))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write digest: %w", err)
	}
	return path, nil
}

// StartDigestScheduler runs the weekly digest on the configured cron
// schedule. An empty schedule disables it.
func StartDigestScheduler(cfg Config, journal *Journal, notifier *Notifier) {
	if cfg.DigestSchedule == "" {
		return
	}
	sched, err := digestCronParser.Parse(cfg.DigestSchedule)
	if err != nil {
		log.Printf("digest scheduler disabled: invalid schedule %q: %v", cfg.DigestSchedule, err)
		return
	}

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			log.Printf("digest scheduled next=%s", next.Format(time.RFC3339))
			time.Sleep(next.Sub(now))
			runDigest(cfg, journal, notifier)
		}
	}()
}

func runDigest(cfg Config, journal *Journal, notifier *Notifier) {
	now := time.Now().In(cfg.Location)
	from, to := weekRangeAt(now)
	content := BuildDigest(journal.All(), from, to)

	path, err := WriteDigestFile(content, cfg.DigestOutputDir, from)
	if err != nil {
		log.Printf("digest write failed error=%v", err)
		return
	}
	log.Printf("digest written path=%s", path)

	if notifier != nil {
		if err := notifier.PostDigest(content); err != nil {
			log.Printf("digest slack post failed error=%v", err)
		}
	}
}
