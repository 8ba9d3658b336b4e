package repository

// paginar normalises page/limit pairs coming from query strings.
func paginar(page, limit, porDefecto int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = porDefecto
	}
	return page, limit
}
