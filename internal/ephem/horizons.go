package ephem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/litescript/ls-orrery/internal/astro"
)

const (
	// HorizonsAPIURL is the JPL Horizons JSON API endpoint.
	HorizonsAPIURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

	// RequestTimeout is the HTTP request timeout.
	RequestTimeout = 30 * time.Second

	// DefaultTableStep is the default spacing between fetched samples.
	DefaultTableStep = 24 * time.Hour

	// maxConcurrentFetches bounds parallel requests to Horizons.
	maxConcurrentFetches = 4
)

// HorizonsConfig configures the vector tables fetched at startup.
type HorizonsConfig struct {
	URL    string
	Client *http.Client

	Start, End time.Time
	Step       time.Duration

	// Interval is the minimum spacing between requests. Zero disables
	// pacing.
	Interval time.Duration

	// Keys to fetch; nil means every catalog key except the Sun.
	Keys []Key
}

// sample is one row of a vector table.
type sample struct {
	jde      float64
	pos, vel astro.Vec3 // km, km/s
}

// HorizonsTable serves positions interpolated from heliocentric ICRF state
// vectors fetched from JPL Horizons once, at construction. Lookups are pure
// in-memory work.
type HorizonsTable struct {
	catalogKeys
	tables     map[Key][]sample
	start, end time.Time
}

// NewHorizonsTable fetches a vector table for every configured key.
func NewHorizonsTable(ctx context.Context, cfg HorizonsConfig) (*HorizonsTable, error) {
	if cfg.URL == "" {
		cfg.URL = HorizonsAPIURL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: RequestTimeout}
	}
	if cfg.Step <= 0 {
		cfg.Step = DefaultTableStep
	}
	if !cfg.End.After(cfg.Start) {
		return nil, fmt.Errorf("horizons table: end %s not after start %s", cfg.End, cfg.Start)
	}
	keys := cfg.Keys
	if keys == nil {
		for _, id := range orderedBodies() {
			k, _ := EphemerisPath(id)
			if k != NAIFSun {
				keys = append(keys, k)
			}
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Interval), 1)
	}

	results := make([][]sample, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			rows, err := fetchVectors(ctx, cfg, k)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", k, err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return newHorizonsTable(keys, results)
}

func newHorizonsTable(keys []Key, results [][]sample) (*HorizonsTable, error) {
	h := &HorizonsTable{tables: make(map[Key][]sample, len(keys))}
	lo, hi := 0.0, 0.0
	for i, k := range keys {
		rows := results[i]
		if len(rows) < 2 {
			return nil, fmt.Errorf("horizons table for %s has %d samples, need at least 2", k, len(rows))
		}
		sort.Slice(rows, func(a, b int) bool { return rows[a].jde < rows[b].jde })
		h.tables[k] = rows
		first, last := rows[0].jde, rows[len(rows)-1].jde
		if i == 0 || first > lo {
			lo = first
		}
		if i == 0 || last < hi {
			hi = last
		}
	}
	if hi <= lo {
		return nil, fmt.Errorf("horizons tables do not overlap")
	}
	h.start = jdeToTime(lo)
	h.end = jdeToTime(hi)
	return h, nil
}

// Name implements Source.
func (h *HorizonsTable) Name() string {
	return "Horizons"
}

// Coverage implements Source.
func (h *HorizonsTable) Coverage() (time.Time, time.Time) {
	return h.start, h.end
}

// State implements Source.
func (h *HorizonsTable) State(key Key, t time.Time, frame Frame, corr Correction) (State, error) {
	return computeState(h.heliocentric, h.start, h.end, key, t, frame, corr)
}

func (h *HorizonsTable) heliocentric(k Key, t time.Time) (astro.Vec3, error) {
	if k == NAIFSun {
		return astro.Vec3{}, nil
	}
	rows, ok := h.tables[k]
	if !ok {
		return astro.Vec3{}, unknownKey(k)
	}
	return interpolate(rows, JDE(t)), nil
}

// interpolate evaluates the cubic Hermite spline through the bracketing
// samples. Epochs just outside the table use the end segment.
func interpolate(rows []sample, jde float64) astro.Vec3 {
	i := sort.Search(len(rows), func(i int) bool { return rows[i].jde > jde })
	switch {
	case i == 0:
		i = 1
	case i == len(rows):
		i = len(rows) - 1
	}
	p0, p1 := rows[i-1], rows[i]

	dt := (p1.jde - p0.jde) * 86400
	s := (jde - p0.jde) * 86400 / dt
	s2, s3 := s*s, s*s*s

	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	return p0.pos.Scale(h00).
		Add(p0.vel.Scale(h10 * dt)).
		Add(p1.pos.Scale(h01)).
		Add(p1.vel.Scale(h11 * dt))
}

func jdeToTime(jde float64) time.Time {
	t := julian.JDToTime(jde).UTC()
	return t.Add(-DeltaT(t))
}

// horizonsResponse represents the JSON API response.
type horizonsResponse struct {
	Signature struct {
		Version string `json:"version"`
		Source  string `json:"source"`
	} `json:"signature"`
	Result string `json:"result"`
	Error  string `json:"error"`
}

// fetchVectors queries Horizons for heliocentric ICRF state vectors.
func fetchVectors(ctx context.Context, cfg HorizonsConfig, k Key) ([]sample, error) {
	// Values must be quoted with single quotes.
	params := url.Values{}
	params.Set("format", "json")
	params.Set("COMMAND", fmt.Sprintf("'%d'", int(k)))
	params.Set("OBJ_DATA", "NO")
	params.Set("MAKE_EPHEM", "YES")
	params.Set("EPHEM_TYPE", "VECTORS")
	params.Set("CENTER", "'500@10'")
	params.Set("REF_PLANE", "FRAME")
	params.Set("REF_SYSTEM", "ICRF")
	params.Set("VEC_TABLE", "'2'")
	params.Set("VEC_CORR", "NONE")
	params.Set("OUT_UNITS", "'KM-S'")
	params.Set("START_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(cfg.Start)))
	params.Set("STOP_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(cfg.End)))
	params.Set("STEP_SIZE", fmt.Sprintf("'%s'", formatStepSize(cfg.Step)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := cfg.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("horizons request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("horizons returned status %d: %s", resp.StatusCode, string(body))
	}

	var hr horizonsResponse
	if err := json.Unmarshal(body, &hr); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if hr.Error != "" {
		return nil, fmt.Errorf("horizons error: %s", hr.Error)
	}
	return parseVectorTable(hr.Result)
}

// parseVectorTable extracts state vectors between the $$SOE and $$EOE
// markers. Format for VEC_TABLE='2':
//
//	2460496.500000000 = A.D. 2024-Jul-04 00:00:00.0000 TDB
//	 X = 2.829E+07 Y =-1.358E+08 Z =-5.889E+07
//	 VX= 2.837E+01 VY= 5.190E+00 VZ= 2.251E+00
func parseVectorTable(result string) ([]sample, error) {
	soeIdx := strings.Index(result, "$$SOE")
	eoeIdx := strings.Index(result, "$$EOE")
	if soeIdx == -1 || eoeIdx == -1 || soeIdx >= eoeIdx {
		return nil, fmt.Errorf("could not find vector data markers")
	}

	var (
		rows    []sample
		cur     sample
		havePos bool
		haveJD  bool
	)
	for _, line := range strings.Split(result[soeIdx+5:eoeIdx], "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.Contains(line, "A.D."):
			jd, err := strconv.ParseFloat(strings.Fields(line)[0], 64)
			if err != nil {
				return nil, fmt.Errorf("bad epoch line %q: %w", line, err)
			}
			cur, haveJD, havePos = sample{jde: jd}, true, false
		case strings.HasPrefix(line, "VX"):
			if !haveJD || !havePos {
				return nil, fmt.Errorf("velocity line without epoch: %q", line)
			}
			v, err := parseLabeled(line, "VX", "VY", "VZ")
			if err != nil {
				return nil, err
			}
			cur.vel = v
			rows = append(rows, cur)
			haveJD, havePos = false, false
		case strings.HasPrefix(line, "X"):
			if !haveJD {
				return nil, fmt.Errorf("position line without epoch: %q", line)
			}
			p, err := parseLabeled(line, "X", "Y", "Z")
			if err != nil {
				return nil, err
			}
			cur.pos, havePos = p, true
		}
	}
	return rows, nil
}

// parseLabeled parses "X = 1.23E+00 Y =-2.34E+00 Z = 3.45E-01" style lines.
func parseLabeled(line string, labels ...string) (astro.Vec3, error) {
	fields := strings.Fields(strings.ReplaceAll(line, "=", " = "))
	values := make(map[string]float64, 3)
	for i := 0; i+2 < len(fields); i++ {
		if fields[i+1] != "=" {
			continue
		}
		v, err := strconv.ParseFloat(fields[i+2], 64)
		if err != nil {
			return astro.Vec3{}, fmt.Errorf("bad value for %s in %q: %w", fields[i], line, err)
		}
		values[fields[i]] = v
		i += 2
	}
	var out [3]float64
	for j, l := range labels {
		v, ok := values[l]
		if !ok {
			return astro.Vec3{}, fmt.Errorf("missing %s in %q", l, line)
		}
		out[j] = v
	}
	return astro.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}

// formatHorizonsTime formats a time for Horizons API.
func formatHorizonsTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

// formatStepSize formats a duration as a Horizons step size.
func formatStepSize(d time.Duration) string {
	minutes := int(d.Minutes())
	switch {
	case minutes >= 1440 && minutes%1440 == 0:
		return fmt.Sprintf("%d d", minutes/1440)
	case minutes >= 60 && minutes%60 == 0:
		return fmt.Sprintf("%d h", minutes/60)
	default:
		return fmt.Sprintf("%d m", max(minutes, 1))
	}
}
