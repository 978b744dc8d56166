package usecase

// テストからメモリ上の持ち物の数を見る

func (u *AuthUsecase) ValidatedCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.validated)
}

func (u *CartUsecase) MirrorCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.mirrors)
}

func (u *ProfileUsecase) MirrorCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.mirrors)
}

func (u *CheckoutUsecase) OpenFlows() int {
	return u.registry.Len()
}
