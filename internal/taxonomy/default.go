package taxonomy

import "kbpulse/pkg/contracts/domain"

// Group names of the built-in taxonomy
const (
	GroupNation       = "전국"
	GroupRegion       = "권역"
	GroupSeoul        = "서울"
	GroupProvince     = "광역시·도"
	GroupSeoulGu      = "서울 자치구"
	GroupGyeonggi     = "경기 주요도시"
	GroupUnclassified = "기타"
)

// DefaultTaxonomy returns the built-in KB region taxonomy. The nation-level
// label is its own first group rather than part of the hierarchy below it.
func DefaultTaxonomy() domain.RegionTaxonomy {
	return domain.RegionTaxonomy{
		Groups: []domain.TaxonomyGroup{
			{Name: GroupNation, Keywords: []string{"전국", "국가"}},
			{Name: GroupRegion, Keywords: []string{"수도권", "6개광역시", "5개광역시", "기타지방", "지방"}},
			{Name: GroupSeoul, Keywords: []string{"서울", "강북14개구", "강남11개구"}},
			{Name: GroupProvince, Keywords: []string{
				"부산", "대구", "인천", "광주", "대전", "울산", "세종",
				"경기", "강원", "충북", "충남", "전북", "전남", "경북", "경남", "제주",
			}},
			{Name: GroupSeoulGu, Keywords: []string{
				"강남구", "강동구", "강북구", "강서구", "관악구", "광진구", "구로구",
				"금천구", "노원구", "도봉구", "동대문구", "동작구", "마포구", "서대문구",
				"서초구", "성동구", "성북구", "송파구", "양천구", "영등포구", "용산구",
				"은평구", "종로구", "중구", "중랑구",
			}},
			{Name: GroupGyeonggi, Keywords: []string{
				"수원", "성남", "고양", "용인", "부천", "안산", "안양", "남양주",
				"화성", "평택", "의정부", "시흥", "파주", "김포", "광명", "하남",
				"군포", "오산", "이천", "구리", "의왕", "과천",
			}},
		},
		FallbackGroup: GroupUnclassified,
	}
}
