package model

// 题库目录：分类 → 科目 → 块。静态参考数据，题量以数据库实际统计为准
type Category struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Subjects []Subject `json:"subjects"`
}

type Subject struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	QuestionCount int     `json:"question_count"`
	IsMasterBlock bool    `json:"is_master_block,omitempty"`
	Blocks        []Block `json:"blocks,omitempty"`
}

type Block struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	QuestionCount int    `json:"question_count"`
}

var Categories = []Category{
	{
		ID:   "basic-medical-sciences",
		Name: "Basic Medical Sciences",
		Subjects: []Subject{
			{
				ID:   "anatomy",
				Name: "Anatomy",
				Blocks: []Block{
					{ID: "upper-limb", Name: "Upper Limb", QuestionCount: 50},
					{ID: "lower-limb", Name: "Lower Limb", QuestionCount: 45},
					{ID: "thorax", Name: "Thorax", QuestionCount: 40},
					{ID: "abdomen", Name: "Abdomen", QuestionCount: 42},
					{ID: "tapp", Name: "Pelvic & Perineum (TAPP)", QuestionCount: 35},
					{ID: "head-neck", Name: "Head & Neck", QuestionCount: 48},
					{ID: "neuroanatomy", Name: "Neuroanatomy", QuestionCount: 55},
				},
			},
			{ID: "histology", Name: "Histology", QuestionCount: 60},
			{ID: "embryology", Name: "Embryology", QuestionCount: 45},
			{ID: "mb-anatomy", Name: "MB Anatomy", QuestionCount: 315, IsMasterBlock: true},
			{
				ID:   "physiology",
				Name: "Physiology",
				Blocks: []Block{
					{ID: "block-1", Name: "Block 1", QuestionCount: 40},
					{ID: "block-2", Name: "Block 2", QuestionCount: 42},
					{ID: "block-3", Name: "Block 3", QuestionCount: 38},
					{ID: "block-4", Name: "Block 4", QuestionCount: 41},
					{ID: "block-5", Name: "Block 5", QuestionCount: 39},
					{ID: "block-6", Name: "Block 6", QuestionCount: 44},
				},
			},
			{ID: "mb-physiology", Name: "MB Physiology", QuestionCount: 244, IsMasterBlock: true},
			{
				ID:   "biochemistry",
				Name: "Biochemistry",
				Blocks: []Block{
					{ID: "block-1", Name: "Block 1", QuestionCount: 35},
					{ID: "block-2", Name: "Block 2", QuestionCount: 37},
					{ID: "block-3", Name: "Block 3", QuestionCount: 33},
				},
			},
			{ID: "mb-biochemistry", Name: "MB Biochemistry", QuestionCount: 105, IsMasterBlock: true},
		},
	},
	{
		ID:   "path-pharm",
		Name: "Path & Pharm",
		Subjects: []Subject{
			{
				ID:   "microbiology",
				Name: "Microbiology",
				Blocks: []Block{
					{ID: "block-1", Name: "Block 1: Bacteriology & Mycology", QuestionCount: 45},
					{ID: "block-2", Name: "Block 2: Mycology & Virology", QuestionCount: 42},
					{ID: "block-3", Name: "Block 3: Parasitology", QuestionCount: 38},
				},
			},
			{
				ID:   "pathology",
				Name: "Pathology",
				Blocks: []Block{
					{ID: "block-1", Name: "Block 1", QuestionCount: 40},
					{ID: "block-2", Name: "Block 2", QuestionCount: 41},
				},
			},
			{
				ID:   "chemical-pathology",
				Name: "Chemical Pathology",
				Blocks: []Block{
					{ID: "block-1", Name: "Block 1", QuestionCount: 35},
					{ID: "block-2", Name: "Block 2", QuestionCount: 37},
				},
			},
			{
				ID:   "hematology",
				Name: "Hematology",
				Blocks: []Block{
					{ID: "block-1", Name: "Block 1", QuestionCount: 32},
					{ID: "block-2", Name: "Block 2", QuestionCount: 34},
				},
			},
			{
				ID:   "pharmacology",
				Name: "Pharmacology",
				Blocks: []Block{
					{ID: "block-1", Name: "Block 1", QuestionCount: 38},
					{ID: "block-2", Name: "Block 2", QuestionCount: 40},
				},
			},
			{ID: "mb-path-pharm", Name: "MB Path & Pharm", QuestionCount: 482, IsMasterBlock: true},
		},
	},
}

// FindSubject 根据科目 ID 定位其所属分类
func FindSubject(subjectID string) (categoryID string, subject *Subject, ok bool) {
	for ci := range Categories {
		for si := range Categories[ci].Subjects {
			if Categories[ci].Subjects[si].ID == subjectID {
				return Categories[ci].ID, &Categories[ci].Subjects[si], true
			}
		}
	}
	return "", nil, false
}

// BlockInSubject 校验块是否属于指定科目。块 ID 在不同科目间会重复（block-1 等），必须带科目查找
func BlockInSubject(subjectID, blockID string) bool {
	_, subject, ok := FindSubject(subjectID)
	if !ok {
		return false
	}
	for _, blk := range subject.Blocks {
		if blk.ID == blockID {
			return true
		}
	}
	return false
}
