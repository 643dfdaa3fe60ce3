package scrape

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// PageMeta is the extracted metadata of one page.
type PageMeta struct {
	URL       string
	Title     string
	Canonical string
	Meta      map[string]string
	Headings  []Heading
	Links     []Link
}

// Heading is one h1..h6 element.
type Heading struct {
	Level int
	Text  string
}

// Link is one hyperlink with its href resolved to an absolute URL where the
// page URL allows it.
type Link struct {
	Href string
	Text string
}

type Client struct {
	client    *http.Client
	UserAgent string
}

func NewClient() *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		client:    &http.Client{Jar: jar},
		UserAgent: "Mozilla/5.0 (compatible; DominoBot/1.0; +https://example.com)",
	}
}

// Fetch downloads rawURL and extracts its metadata.
func (c *Client) Fetch(rawURL string) (*PageMeta, error) {
	req, err := http.NewRequest("GET", rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	return Extract(rawURL, resp.Body)
}

// Extract reads HTML from r and collects the page metadata. base gives the
// page URL used to resolve relative hrefs; it may be empty.
func Extract(base string, r io.Reader) (*PageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var baseURL *url.URL
	if strings.TrimSpace(base) != "" {
		if u, parseErr := url.Parse(base); parseErr == nil {
			baseURL = u
		}
	}

	meta := &PageMeta{URL: base, Meta: make(map[string]string)}
	meta.Title = Clean(doc.Find("title").First().Text())

	doc.Find("meta").Each(func(i int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || strings.TrimSpace(name) == "" {
			name, _ = s.Attr("property")
		}
		name = strings.ToLower(strings.TrimSpace(name))
		content, _ := s.Attr("content")
		content = Clean(content)
		if name == "" || content == "" {
			return
		}
		meta.Meta[name] = content
	})

	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		meta.Canonical = resolve(baseURL, href)
	}

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(i int, s *goquery.Selection) {
		node := s.Get(0)
		if len(node.Data) != 2 {
			return
		}
		meta.Headings = append(meta.Headings, Heading{
			Level: int(node.Data[1] - '0'),
			Text:  Clean(s.Text()),
		})
	})

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "javascript:") {
			return
		}
		abs := resolve(baseURL, href)
		if abs == "" {
			return
		}
		meta.Links = append(meta.Links, Link{Href: abs, Text: Clean(s.Text())})
	})

	return meta, nil
}

// Clean normalizes text to NFC and collapses runs of whitespace.
func Clean(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

func resolve(base *url.URL, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.IsAbs() || base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}
