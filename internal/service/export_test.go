package service

import "time"

func (s *OrderService) SetOrderNumberFunc(fn func(time.Time) string) { s.newNumber = fn }

func (s *OrderService) SetClock(fn func() time.Time) { s.now = fn }

func (s *AuthService) SetClock(fn func() time.Time) { s.now = fn }
