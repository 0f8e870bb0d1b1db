package sqlinline

const QInsertClickEvent = `--sql 6272703b-ebc9-4dc8-891e-9fb94d9d1e02
with clicked as (
    update products
    set click_count = click_count + 1
    where id = $1::uuid and active
    returning id
)
insert into click_events (product_id, country, referrer)
select id, $2::text, $3::text
from clicked;
`

const QInsertProfileView = `--sql 462428ef-52e2-4a93-933f-5f2efb1e625c
insert into profile_views (profile_user_id, country, referrer)
select user_id, $2::text, $3::text
from profiles
where user_id = $1;
`

const QSelectClickTarget = `--sql 9c2829e0-f30b-43a6-8135-d313095c1494
select url
from products
where id = $1::uuid and active
limit 1;
`
