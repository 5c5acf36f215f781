package model

import "time"

// Post はプロジェクト投稿を表す。
// 管理者がIsVerifiedをtrueにするまでフィードには表示されない。
type Post struct {
	ID           string
	UserID       string
	Domain       string
	GlobalVision string
	Description  string
	Goal         string
	PostImage    string
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IntelType はVIPインテル投稿の役割カテゴリを表す。
type IntelType string

const (
	// IntelFreelancer はフリーランサーのサービス掲載。
	IntelFreelancer IntelType = "Freelancer"
	// IntelBrand はブランドの募集掲載。
	IntelBrand IntelType = "Brand"
	// IntelSimple は一般ユーザーの掲載。
	IntelSimple IntelType = "Simple"
)

// MediaType はインテル投稿のメディア種別を表す。
type MediaType string

const (
	// MediaImage は画像メディア。
	MediaImage MediaType = "image"
	// MediaVideo は動画メディア。
	MediaVideo MediaType = "video"
)

// VipPost はVIPインテル掲載を表す。
// 投稿時のユーザー評価スナップショットでフィードをソートする。
type VipPost struct {
	ID                 string
	UserID             string
	IntelType          IntelType
	Verified           bool
	GlobalService      string
	ServiceDescription string
	PortfolioLinks     []string
	BrandName          string
	SearchingFor       string
	BrandSocialLink    string
	IntelImage         string
	MediaType          MediaType
	RatingSnapshot     float64
	CreatedAt          time.Time
}
