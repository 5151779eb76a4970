package model

// SourceTMDB 标记记录来自 TMDB 目录
const SourceTMDB = "tmdb"

// Movie 电影模型（TMDB 列表/详情）
// PosterPath/BackdropPath 上游返回相对路径，经过 enrich 后为完整图片地址
type Movie struct {
	ID                  int                 `json:"id"`
	Title               string              `json:"title"`
	Overview            string              `json:"overview"`
	PosterPath          *string             `json:"poster_path"`
	BackdropPath        *string             `json:"backdrop_path,omitempty"`
	ReleaseDate         string              `json:"release_date,omitempty"`
	VoteAverage         float64             `json:"vote_average"`
	Popularity          float64             `json:"popularity"`
	Runtime             int                 `json:"runtime,omitempty"`
	Budget              int64               `json:"budget,omitempty"`
	Revenue             int64               `json:"revenue,omitempty"`
	Adult               bool                `json:"adult,omitempty"`
	ProductionCompanies []ProductionCompany `json:"production_companies,omitempty"`
	Credits             *Credits            `json:"credits,omitempty"`
	Videos              *VideoResponse      `json:"videos,omitempty"`

	// 类型相关字段
	GenreIDs   []int    `json:"genre_ids,omitempty"`
	Genres     []Genre  `json:"genres,omitempty"`
	GenreNames []string `json:"genreNames,omitempty"`
	Source     string   `json:"source,omitempty"`
}

// Poster 返回海报地址（可能为空）
func (m *Movie) Poster() string {
	if m.PosterPath == nil {
		return ""
	}
	return *m.PosterPath
}

// Genre 类型
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreMap 类型 ID -> 名称
type GenreMap map[int]string

// GenreResponse /genre/movie/list 响应
type GenreResponse struct {
	Genres []Genre `json:"genres"`
}

// ProductionCompany 出品公司
type ProductionCompany struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	LogoPath      *string `json:"logo_path"`
	OriginCountry string  `json:"origin_country"`
}

// Credits 演职员表
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// CastMember 演员
type CastMember struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profile_path"`
	Order       int     `json:"order"`
}

// CrewMember 幕后人员
type CrewMember struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Job         string  `json:"job"`
	Department  string  `json:"department"`
	ProfilePath *string `json:"profile_path"`
}

// Paged TMDB 分页响应
type Paged[T any] struct {
	Page         int `json:"page"`
	Results      []T `json:"results"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

// VideoResponse /movie/{id}/videos 响应
type VideoResponse struct {
	ID      int     `json:"id"`
	Results []Video `json:"results"`
}

// Video 视频条目
type Video struct {
	ID          string `json:"id"`
	ISO6391     string `json:"iso_639_1"`
	ISO31661    string `json:"iso_3166_1"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Site        string `json:"site"`
	Size        int    `json:"size"`
	Type        string `json:"type"`
	Official    bool   `json:"official"`
	PublishedAt string `json:"published_at"`
}

// TrendingItem /trending/all/week 条目（电影或剧集）
type TrendingItem struct {
	ID           int     `json:"id"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	BackdropPath *string `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	Overview     string  `json:"overview"`
}

// HeroBackdrop 首页大图
type HeroBackdrop struct {
	URL      string  `json:"url"`
	Title    string  `json:"title"`
	Avg      float64 `json:"avg"`
	Overview string  `json:"overview"`
}
