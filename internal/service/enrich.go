package service

import (
	"github.com/Joellzt/movie-cards/internal/model"
)

// 视频筛选条件
const (
	videoSiteYouTube = "YouTube"
	videoTypeTrailer = "Trailer"
)

// enrichList 列表结果加工：
// 去掉无海报的条目，补全海报地址，计算类型名称，标记来源
func enrichList(list []model.Movie, genres model.GenreMap, imageBase string) []model.Movie {
	out := make([]model.Movie, 0, len(list))
	for _, m := range list {
		if m.PosterPath == nil || *m.PosterPath == "" {
			continue
		}
		m.PosterPath = absoluteURL(imageBase, m.PosterPath)
		m.GenreNames = genreNames(m, genres)
		m.Source = model.SourceTMDB
		out = append(out, m)
	}
	return out
}

// enrichDetails 详情加工：类型名称取自记录本身的 genres
func enrichDetails(m model.Movie, imageBase, backdropBase string) model.Movie {
	m.PosterPath = absoluteURL(imageBase, m.PosterPath)
	m.BackdropPath = absoluteURL(backdropBase, m.BackdropPath)
	m.GenreNames = make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		m.GenreNames = append(m.GenreNames, g.Name)
	}
	m.Source = model.SourceTMDB
	return m
}

// genreNames 优先用 genre_ids 查表，未知 ID 丢弃；没有 genre_ids 时退回 genres
func genreNames(m model.Movie, genres model.GenreMap) []string {
	if m.GenreIDs != nil {
		names := make([]string, 0, len(m.GenreIDs))
		for _, id := range m.GenreIDs {
			if name, ok := genres[id]; ok && name != "" {
				names = append(names, name)
			}
		}
		return names
	}
	names := make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		names = append(names, g.Name)
	}
	return names
}

func absoluteURL(base string, path *string) *string {
	if path == nil || *path == "" {
		return nil
	}
	u := base + *path
	return &u
}

// selectTrailer 官方 YouTube 预告片 > 任意 YouTube 预告片 > 无
func selectTrailer(videos []model.Video) (model.Video, bool) {
	for _, v := range videos {
		if v.Site == videoSiteYouTube && v.Type == videoTypeTrailer && v.Official {
			return v, true
		}
	}
	for _, v := range videos {
		if v.Site == videoSiteYouTube && v.Type == videoTypeTrailer {
			return v, true
		}
	}
	return model.Video{}, false
}
