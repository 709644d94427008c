package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/maxvaer/proxycheck/internal/candidate"
)

const proxyDailyURL = "https://proxy-daily.com/api/serverside/proxies"

var proxyDailyColumns = []string{"ip", "port", "protocol", "speed", "anonymity", "country"}

// ProxyDaily queries the DataTables JSON endpoint behind proxy-daily.com.
type ProxyDaily struct {
	URL    string
	Length int // rows requested, default 50
	f      fetcher
	now    func() time.Time
}

// NewProxyDaily returns a ProxyDaily source with the public API URL.
func NewProxyDaily(opts Options) *ProxyDaily {
	return &ProxyDaily{URL: proxyDailyURL, Length: 50, f: newFetcher(opts), now: time.Now}
}

func (s *ProxyDaily) Name() string { return "proxydaily" }

type proxyDailyResponse struct {
	Data []struct {
		IP   string     `json:"ip"`
		Port flexString `json:"port"`
	} `json:"data"`
}

// flexString accepts either a JSON string or a JSON number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("port is neither string nor number: %s", b)
	}
	*s = flexString(n.String())
	return nil
}

func (s *ProxyDaily) Candidates(ctx context.Context) ([]candidate.RawPair, error) {
	headers := map[string]string{
		"Accept":           "application/json",
		"Referer":          "https://proxy-daily.com/",
		"X-Requested-With": "XMLHttpRequest",
	}
	body, err := s.f.get(ctx, s.URL+"?"+s.query().Encode(), headers)
	if err != nil {
		return nil, err
	}
	return parseProxyDaily(body)
}

func (s *ProxyDaily) query() url.Values {
	q := url.Values{}
	q.Set("draw", "0")
	for i, col := range proxyDailyColumns {
		prefix := "columns[" + strconv.Itoa(i) + "]"
		q.Set(prefix+"[data]", col)
		q.Set(prefix+"[name]", col)
		q.Set(prefix+"[searchable]", "true")
		q.Set(prefix+"[orderable]", "false")
		q.Set(prefix+"[search][value]", "")
		q.Set(prefix+"[search][regex]", "false")
	}
	length := s.Length
	if length <= 0 {
		length = 50
	}
	q.Set("start", "0")
	q.Set("length", strconv.Itoa(length))
	q.Set("search[value]", "")
	q.Set("search[regex]", "false")
	q.Set("_", strconv.FormatInt(s.now().UnixMilli(), 10))
	return q
}

func parseProxyDaily(body []byte) ([]candidate.RawPair, error) {
	var resp proxyDailyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding proxy-daily response: %w", err)
	}
	var pairs []candidate.RawPair
	for _, item := range resp.Data {
		if ipPrefix.MatchString(item.IP) {
			pairs = append(pairs, candidate.RawPair{Address: item.IP, Port: string(item.Port)})
		}
	}
	return pairs, nil
}
