package openlibrary

// bookResponse matches one entry of the /api/books jscmd=data response.
type bookResponse struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	URL      string `json:"url"`
	// Description is a string or an object with a "value" key depending
	// on the record.
	Description any `json:"description"`
	Publishers  []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Cover struct {
		Small  string `json:"small"`
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"cover"`
	Subjects      []any  `json:"subjects"`
	NumberOfPages int    `json:"number_of_pages"`
	PublishDate   string `json:"publish_date"`
	Identifiers   struct {
		ISBN10 []string `json:"isbn_10"`
		ISBN13 []string `json:"isbn_13"`
	} `json:"identifiers"`
}

// editionResponse matches the /isbn/{isbn}.json edition record.
type editionResponse struct {
	NumberOfPages int      `json:"number_of_pages"`
	Publishers    []string `json:"publishers"`
	Series        []string `json:"series"`
	Languages     []struct {
		Key string `json:"key"`
	} `json:"languages"`
	Subjects []string `json:"subjects"`
}

// searchResponse matches the /search.json response.
type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

type searchDoc struct {
	Key                 string   `json:"key"`
	Title               string   `json:"title"`
	Subtitle            string   `json:"subtitle"`
	AuthorName          []string `json:"author_name"`
	FirstPublishYear    int      `json:"first_publish_year"`
	ISBN                []string `json:"isbn"`
	CoverID             int      `json:"cover_i"`
	Language            []string `json:"language"`
	Publisher           []string `json:"publisher"`
	Subject             []string `json:"subject"`
	NumberOfPagesMedian int      `json:"number_of_pages_median"`
	RatingsAverage      float64  `json:"ratings_average"`
}
